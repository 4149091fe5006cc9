package mcp

import (
	"context"
	"errors"

	"github.com/claude/ironpulse/internal/alarms"
	"github.com/claude/ironpulse/internal/models"
	"github.com/claude/ironpulse/internal/plans"
)

// ErrSignedOut is returned by Local when a mutation has no acting user.
var ErrSignedOut = errors.New("sign in required")

// DataSource abstracts the data layer for MCP tools. Both Local (repositories
// over the configured store) and HTTPClient (remote via REST API) satisfy this
// interface. HTTPClient ignores the user argument; the remote server derives it
// from the bearer token.
type DataSource interface {
	ListPlans(ctx context.Context, user models.User) ([]models.WorkoutPlan, error)
	GetPlan(ctx context.Context, id string) (models.WorkoutPlan, bool, error)
	SavePlan(ctx context.Context, user models.User, draft models.PlanDraft) (models.WorkoutPlan, error)
	DeletePlan(ctx context.Context, user models.User, id string) (bool, error)
	ListAlarms(ctx context.Context) ([]models.Alarm, error)
	CreateAlarm(ctx context.Context, user models.User, at, label string) (models.Alarm, error)
	ToggleAlarm(ctx context.Context, user models.User, id string) (models.Alarm, bool, error)
	DeleteAlarm(ctx context.Context, user models.User, id string) (bool, error)
}

// Local serves tools straight from the plan and alarm repositories.
type Local struct {
	Plans  *plans.Repository
	Alarms *alarms.Repository
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

func (l *Local) ListPlans(ctx context.Context, user models.User) ([]models.WorkoutPlan, error) {
	return l.Plans.List(ctx, user)
}

func (l *Local) GetPlan(ctx context.Context, id string) (models.WorkoutPlan, bool, error) {
	return l.Plans.Get(ctx, id)
}

func (l *Local) SavePlan(ctx context.Context, user models.User, draft models.PlanDraft) (models.WorkoutPlan, error) {
	if !user.Valid() {
		return models.WorkoutPlan{}, ErrSignedOut
	}
	return l.Plans.Save(ctx, user, draft)
}

func (l *Local) DeletePlan(ctx context.Context, user models.User, id string) (bool, error) {
	if !user.Valid() {
		return false, ErrSignedOut
	}
	return l.Plans.Delete(ctx, id)
}

func (l *Local) ListAlarms(ctx context.Context) ([]models.Alarm, error) {
	return l.Alarms.List(ctx)
}

func (l *Local) CreateAlarm(ctx context.Context, user models.User, at, label string) (models.Alarm, error) {
	if !user.Valid() {
		return models.Alarm{}, ErrSignedOut
	}
	return l.Alarms.Create(ctx, user, at, label)
}

func (l *Local) ToggleAlarm(ctx context.Context, user models.User, id string) (models.Alarm, bool, error) {
	if !user.Valid() {
		return models.Alarm{}, false, ErrSignedOut
	}
	return l.Alarms.Toggle(ctx, id)
}

func (l *Local) DeleteAlarm(ctx context.Context, user models.User, id string) (bool, error) {
	if !user.Valid() {
		return false, ErrSignedOut
	}
	return l.Alarms.Delete(ctx, id)
}
