// Package plans manages the workout plan collection. The whole collection is
// stored as one JSON array under storage.KeyPlans, newest plan first, and every
// mutation rewrites it with a single store write.
package plans

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

// ValidationError reports a draft that cannot be saved.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Repository provides CRUD over the plans collection.
type Repository struct {
	store storage.Store
	log   *slog.Logger
	now   func() time.Time
}

// NewRepository creates a plan Repository backed by store.
func NewRepository(store storage.Store, log *slog.Logger) *Repository {
	return &Repository{store: store, log: log, now: time.Now}
}

// load returns the stored plans and whether the key exists. Corrupt data is
// logged and treated as an empty collection.
func (r *Repository) load(ctx context.Context) ([]models.WorkoutPlan, bool, error) {
	var all []models.WorkoutPlan
	found, err := storage.LoadJSON(ctx, r.store, storage.KeyPlans, &all)
	if errors.Is(err, storage.ErrCorrupt) {
		r.log.Warn("plans collection unreadable, treating as empty", "error", err)
		return []models.WorkoutPlan{}, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	if all == nil {
		all = []models.WorkoutPlan{}
	}
	return all, found, nil
}

// List returns every plan in stored order. The user is the acting identity;
// ownership tags are informational and do not filter the result.
func (r *Repository) List(ctx context.Context, _ models.User) ([]models.WorkoutPlan, error) {
	all, _, err := r.load(ctx)
	return all, err
}

// Seed writes the sample plan if the plans collection has never been stored.
// It reports whether anything was written.
func (r *Repository) Seed(ctx context.Context) (bool, error) {
	_, found, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	if found {
		return false, nil
	}
	sample := []models.WorkoutPlan{models.SamplePlan(models.EpochMillis(r.now()))}
	if err := storage.SaveJSON(ctx, r.store, storage.KeyPlans, sample); err != nil {
		return false, fmt.Errorf("seeding plans: %w", err)
	}
	r.log.Info("seeded sample plan")
	return true, nil
}

// Get looks up a plan by id.
func (r *Repository) Get(ctx context.Context, id string) (models.WorkoutPlan, bool, error) {
	all, _, err := r.load(ctx)
	if err != nil {
		return models.WorkoutPlan{}, false, err
	}
	for _, p := range all {
		if p.ID == id {
			return p, true, nil
		}
	}
	return models.WorkoutPlan{}, false, nil
}

// Save creates or updates a plan from draft and returns the stored record.
// A draft without an id becomes a new plan at the front of the collection; a
// draft whose id exists replaces that plan in place. Blank-named exercises are
// dropped.
func (r *Repository) Save(ctx context.Context, user models.User, draft models.PlanDraft) (models.WorkoutPlan, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return models.WorkoutPlan{}, &ValidationError{Field: "title", Message: "please provide a title"}
	}

	all, _, err := r.load(ctx)
	if err != nil {
		return models.WorkoutPlan{}, err
	}

	plan := models.WorkoutPlan{
		ID:          draft.ID,
		UserID:      user.ID,
		Title:       draft.Title,
		Description: draft.Description,
		Exercises:   CleanExercises(draft.Exercises),
		CreatedAt:   models.EpochMillis(r.now()),
	}
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}

	idx := indexOf(all, plan.ID)
	if idx >= 0 {
		all[idx] = plan
	} else {
		all = append([]models.WorkoutPlan{plan}, all...)
	}

	if err := storage.SaveJSON(ctx, r.store, storage.KeyPlans, all); err != nil {
		return models.WorkoutPlan{}, fmt.Errorf("saving plan %s: %w", plan.ID, err)
	}
	r.log.Info("plan saved", "plan_id", plan.ID, "updated", idx >= 0, "exercises", len(plan.Exercises))
	return plan, nil
}

// Delete removes the plan with id. A missing id is a no-op and nothing is written.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	all, _, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	idx := indexOf(all, id)
	if idx < 0 {
		return false, nil
	}
	all = append(all[:idx], all[idx+1:]...)
	if err := storage.SaveJSON(ctx, r.store, storage.KeyPlans, all); err != nil {
		return false, fmt.Errorf("deleting plan %s: %w", id, err)
	}
	r.log.Info("plan deleted", "plan_id", id)
	return true, nil
}

func indexOf(all []models.WorkoutPlan, id string) int {
	for i := range all {
		if all[i].ID == id {
			return i
		}
	}
	return -1
}

// CleanExercises drops blank rows, clamps negative counts and fills missing ids.
func CleanExercises(in []models.Exercise) []models.Exercise {
	out := make([]models.Exercise, 0, len(in))
	for _, ex := range in {
		if ex.Blank() {
			continue
		}
		if ex.ID == "" {
			ex.ID = uuid.NewString()
		}
		ex.Sets = max(ex.Sets, 0)
		ex.Reps = max(ex.Reps, 0)
		out = append(out, ex)
	}
	return out
}
