// Package importer moves plans and alarms between stores as JSON snapshots.
package importer

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/claude/ironpulse/internal/alarms"
	"github.com/claude/ironpulse/internal/models"
	"github.com/claude/ironpulse/internal/plans"
	"github.com/claude/ironpulse/internal/storage"
)

// SnapshotVersion is the format version written by Export.
const SnapshotVersion = 1

// Snapshot is the portable form of the plan and alarm collections. Sessions
// and pending one-time codes are device state and are never exported.
type Snapshot struct {
	Version    int                  `json:"version"`
	ExportedAt int64                `json:"exportedAt"`
	Plans      []models.WorkoutPlan `json:"plans"`
	Alarms     []models.Alarm       `json:"alarms"`
}

// Stats tracks import progress.
type Stats struct {
	PlansImported    int
	PlansDuplicated  int
	AlarmsImported   int
	AlarmsDuplicated int
	Rejected         int
}

// Importer merges snapshots into a store.
type Importer struct {
	store  storage.Store
	log    *slog.Logger
	dryRun bool
	stats  Stats
}

// New creates a new Importer. With dryRun set nothing is written.
func New(store storage.Store, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{store: store, log: log, dryRun: dryRun}
}

// Import reads a snapshot from r and adds every plan and alarm whose id is not
// already stored. Existing records win; imported plans follow the stored ones.
// Imported records are cleaned the way the repositories clean saves. Each
// collection is written at most once.
func (imp *Importer) Import(ctx context.Context, r io.Reader) (*Stats, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return &imp.stats, fmt.Errorf("parsing snapshot: %w", err)
	}
	if snap.Version > SnapshotVersion {
		return &imp.stats, fmt.Errorf("snapshot version %d is newer than supported version %d", snap.Version, SnapshotVersion)
	}

	if err := imp.importPlans(ctx, snap.Plans); err != nil {
		return &imp.stats, fmt.Errorf("importing plans: %w", err)
	}
	if err := imp.importAlarms(ctx, snap.Alarms); err != nil {
		return &imp.stats, fmt.Errorf("importing alarms: %w", err)
	}
	return &imp.stats, nil
}

func (imp *Importer) importPlans(ctx context.Context, incoming []models.WorkoutPlan) error {
	var existing []models.WorkoutPlan
	if err := imp.load(ctx, storage.KeyPlans, &existing); err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.ID] = true
	}

	added := 0
	for _, p := range incoming {
		if p.ID == "" || strings.TrimSpace(p.Title) == "" {
			imp.log.Info("skipping plan (missing id or title)", "plan_id", p.ID)
			imp.stats.Rejected++
			continue
		}
		if seen[p.ID] {
			imp.stats.PlansDuplicated++
			continue
		}
		seen[p.ID] = true
		p.Exercises = plans.CleanExercises(p.Exercises)
		existing = append(existing, p)
		added++
	}
	imp.stats.PlansImported += added

	if added == 0 || imp.dryRun {
		return nil
	}
	return storage.SaveJSON(ctx, imp.store, storage.KeyPlans, existing)
}

func (imp *Importer) importAlarms(ctx context.Context, incoming []models.Alarm) error {
	var existing []models.Alarm
	if err := imp.load(ctx, storage.KeyAlarms, &existing); err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, a := range existing {
		seen[a.ID] = true
	}

	added := 0
	for _, a := range incoming {
		at, err := alarms.NormalizeTime(a.Time)
		if a.ID == "" || err != nil {
			imp.log.Info("skipping alarm (missing id or bad time)", "alarm_id", a.ID, "time", a.Time)
			imp.stats.Rejected++
			continue
		}
		if seen[a.ID] {
			imp.stats.AlarmsDuplicated++
			continue
		}
		seen[a.ID] = true
		a.Time = at
		a.Label = alarms.NormalizeLabel(a.Label)
		existing = append(existing, a)
		added++
	}
	imp.stats.AlarmsImported += added

	if added == 0 || imp.dryRun {
		return nil
	}
	return storage.SaveJSON(ctx, imp.store, storage.KeyAlarms, existing)
}

// load decodes a collection. Unreadable data is replaced rather than merged.
func (imp *Importer) load(ctx context.Context, key string, dst any) error {
	_, err := storage.LoadJSON(ctx, imp.store, key, dst)
	if errors.Is(err, storage.ErrCorrupt) {
		imp.log.Warn("existing collection unreadable, import replaces it", "key", key, "error", err)
		return nil
	}
	return err
}

// Export writes the plan and alarm collections of store to w as a snapshot.
func Export(ctx context.Context, store storage.Store, w io.Writer, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: models.EpochMillis(now),
		Plans:      []models.WorkoutPlan{},
		Alarms:     []models.Alarm{},
	}
	if _, err := storage.LoadJSON(ctx, store, storage.KeyPlans, &snap.Plans); err != nil {
		return nil, fmt.Errorf("exporting plans: %w", err)
	}
	if _, err := storage.LoadJSON(ctx, store, storage.KeyAlarms, &snap.Alarms); err != nil {
		return nil, fmt.Errorf("exporting alarms: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("writing snapshot: %w", err)
	}
	return snap, nil
}

// OpenFile opens a snapshot for reading, decompressing files ending in .gz.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gzip %s: %w", path, err)
	}
	return &gzipReader{Reader: zr, f: f}, nil
}

// CreateFile creates a snapshot file for writing, compressing when the name
// ends in .gz.
func CreateFile(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	return &gzipWriter{Writer: gzip.NewWriter(f), f: f}, nil
}

// gzipReader and gzipWriter close the gzip stream before the file.
type gzipReader struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipReader) Close() error {
	err := g.Reader.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}

type gzipWriter struct {
	*gzip.Writer
	f *os.File
}

func (g *gzipWriter) Close() error {
	err := g.Writer.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}
