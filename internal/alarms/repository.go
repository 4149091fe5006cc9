// Package alarms manages reminder alarms. Alarms are kept in creation order
// under storage.KeyAlarms.
package alarms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/claude/ironpulse/internal/models"
	"github.com/claude/ironpulse/internal/storage"
	"github.com/google/uuid"
)

// ValidationError reports alarm input that cannot be stored.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Repository provides CRUD over the alarms collection.
type Repository struct {
	store storage.Store
	log   *slog.Logger
}

// NewRepository creates an alarm Repository backed by store.
func NewRepository(store storage.Store, log *slog.Logger) *Repository {
	return &Repository{store: store, log: log}
}

func (r *Repository) load(ctx context.Context) ([]models.Alarm, error) {
	var all []models.Alarm
	_, err := storage.LoadJSON(ctx, r.store, storage.KeyAlarms, &all)
	if errors.Is(err, storage.ErrCorrupt) {
		r.log.Warn("alarms collection unreadable, treating as empty", "error", err)
		return []models.Alarm{}, nil
	}
	if err != nil {
		return nil, err
	}
	if all == nil {
		all = []models.Alarm{}
	}
	return all, nil
}

// List returns all alarms in creation order.
func (r *Repository) List(ctx context.Context) ([]models.Alarm, error) {
	return r.load(ctx)
}

// Create appends a new active alarm. label defaults to models.DefaultAlarmLabel.
func (r *Repository) Create(ctx context.Context, user models.User, at, label string) (models.Alarm, error) {
	at, err := NormalizeTime(at)
	if err != nil {
		return models.Alarm{}, err
	}
	label = NormalizeLabel(label)

	all, err := r.load(ctx)
	if err != nil {
		return models.Alarm{}, err
	}

	alarm := models.Alarm{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		Time:     at,
		Label:    label,
		IsActive: true,
	}
	all = append(all, alarm)
	if err := storage.SaveJSON(ctx, r.store, storage.KeyAlarms, all); err != nil {
		return models.Alarm{}, fmt.Errorf("saving alarm: %w", err)
	}
	r.log.Info("alarm created", "alarm_id", alarm.ID, "time", alarm.Time)
	return alarm, nil
}

// NormalizeTime validates an HH:mm time and returns it zero-padded, so "7:05"
// becomes "07:05".
func NormalizeTime(at string) (string, error) {
	at = strings.TrimSpace(at)
	if at == "" {
		return "", &ValidationError{Field: "time", Message: "time is required"}
	}
	parsed, err := time.Parse(models.AlarmTimeLayout, at)
	if err != nil {
		return "", &ValidationError{Field: "time", Message: "time must be HH:mm"}
	}
	return parsed.Format(models.AlarmTimeLayout), nil
}

// NormalizeLabel returns label, or models.DefaultAlarmLabel when it is blank.
func NormalizeLabel(label string) string {
	if strings.TrimSpace(label) == "" {
		return models.DefaultAlarmLabel
	}
	return label
}

// Toggle flips IsActive on the alarm with id and returns the updated alarm.
// A missing id is a no-op.
func (r *Repository) Toggle(ctx context.Context, id string) (models.Alarm, bool, error) {
	all, err := r.load(ctx)
	if err != nil {
		return models.Alarm{}, false, err
	}
	for i := range all {
		if all[i].ID != id {
			continue
		}
		all[i].IsActive = !all[i].IsActive
		if err := storage.SaveJSON(ctx, r.store, storage.KeyAlarms, all); err != nil {
			return models.Alarm{}, false, fmt.Errorf("toggling alarm %s: %w", id, err)
		}
		return all[i], true, nil
	}
	return models.Alarm{}, false, nil
}

// Delete removes the alarm with id. A missing id is a no-op.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	all, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	for i := range all {
		if all[i].ID != id {
			continue
		}
		all = append(all[:i], all[i+1:]...)
		if err := storage.SaveJSON(ctx, r.store, storage.KeyAlarms, all); err != nil {
			return false, fmt.Errorf("deleting alarm %s: %w", id, err)
		}
		r.log.Info("alarm deleted", "alarm_id", id)
		return true, nil
	}
	return false, nil
}
