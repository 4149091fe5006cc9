package alarms

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/ironpulse/internal/models"
)

// Notifier delivers a due alarm to the user.
type Notifier interface {
	Notify(ctx context.Context, alarm models.Alarm) error
}

// LogNotifier writes due alarms to the log.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Notify(_ context.Context, a models.Alarm) error {
	n.Log.Info("alarm due", "alarm_id", a.ID, "time", a.Time, "label", a.Label)
	return nil
}

// Scheduler polls the alarm collection and notifies active alarms whose time
// of day matches the current minute. It never writes to the store.
type Scheduler struct {
	repo     *Repository
	notifier Notifier
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	fired map[string]string // alarm id -> minute key it last fired for

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a Scheduler. interval defaults to 30 seconds so no
// minute is skipped.
func NewScheduler(repo *Repository, notifier Notifier, interval time.Duration, log *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		repo:     repo,
		notifier: notifier,
		interval: interval,
		log:      log,
		now:      time.Now,
		fired:    make(map[string]string),
	}
}

// Start runs the polling loop until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.log.Info("alarm scheduler started", "interval", s.interval.String())

	go func() {
		defer close(s.done)
		s.check(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.check(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit. It is safe on a nil or
// never-started Scheduler.
func (s *Scheduler) Stop() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.log.Info("alarm scheduler stopped")
}

// check notifies every active alarm due in the current minute, at most once
// per alarm per minute. Deleted alarms are forgotten.
func (s *Scheduler) check(ctx context.Context) {
	now := s.now()
	hhmm := now.Format(models.AlarmTimeLayout)
	minuteKey := now.Format("2006-01-02T15:04")

	all, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("listing alarms", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	live := make(map[string]bool, len(all))
	for _, a := range all {
		live[a.ID] = true
	}
	for id := range s.fired {
		if !live[id] {
			delete(s.fired, id)
		}
	}
	for _, a := range all {
		if !a.IsActive || a.Time != hhmm || s.fired[a.ID] == minuteKey {
			continue
		}
		s.fired[a.ID] = minuteKey
		if err := s.notifier.Notify(ctx, a); err != nil {
			s.log.Error("notifying alarm", "alarm_id", a.ID, "error", err)
		}
	}
}
