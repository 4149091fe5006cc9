package models

import (
	"strings"

	"github.com/google/uuid"
)

// Exercise defaults applied when a new exercise row is added in the editor.
const (
	DefaultSets     = 3
	DefaultReps     = 10
	DefaultRestTime = "60s"
)

// Exercise is one movement within a plan. It has no identity outside its parent.
type Exercise struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Sets     int    `json:"sets"`
	Reps     int    `json:"reps"`
	RestTime string `json:"restTime"`
}

// WorkoutPlan is a named, ordered set of exercises.
type WorkoutPlan struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Exercises   []Exercise `json:"exercises"`
	CreatedAt   int64      `json:"createdAt"`
}

// PlanDraft is the editor's form state. An empty ID means "create".
type PlanDraft struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Exercises   []Exercise `json:"exercises"`
}

// NewExercise returns a blank exercise row with editor defaults.
func NewExercise() Exercise {
	return Exercise{
		ID:       uuid.NewString(),
		Sets:     DefaultSets,
		Reps:     DefaultReps,
		RestTime: DefaultRestTime,
	}
}

// Blank reports whether the exercise has no usable name and should be dropped on save.
func (e Exercise) Blank() bool {
	return strings.TrimSpace(e.Name) == ""
}

// Draft returns the editable form of an existing plan.
func (p WorkoutPlan) Draft() PlanDraft {
	return PlanDraft{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Exercises:   append([]Exercise(nil), p.Exercises...),
	}
}

// SamplePlan is the single plan written when the plans collection has never existed.
func SamplePlan(createdAt int64) WorkoutPlan {
	return WorkoutPlan{
		ID:          "1",
		UserID:      "mock-1",
		Title:       "Morning Blast",
		Description: "High intensity cardio and bodyweight",
		CreatedAt:   createdAt,
		Exercises: []Exercise{
			{ID: "e1", Name: "Pushups", Sets: 4, Reps: 20, RestTime: "45s"},
			{ID: "e2", Name: "Burpees", Sets: 3, Reps: 15, RestTime: "60s"},
		},
	}
}
