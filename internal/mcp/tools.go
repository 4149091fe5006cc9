package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/ironpulse/internal/alarms"
	"github.com/claude/ironpulse/internal/auth"
	"github.com/claude/ironpulse/internal/models"
	"github.com/claude/ironpulse/internal/plans"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolListPlans = mcp.NewTool("list_plans",
	mcp.WithDescription("List all workout plans, newest first. Each plan includes its exercises with sets, reps and rest time."),
)

var toolGetPlan = mcp.NewTool("get_plan",
	mcp.WithDescription("Get a single workout plan by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Plan id")),
)

var toolSavePlan = mcp.NewTool("save_plan",
	mcp.WithDescription("Create or update a workout plan. With an id that matches a stored plan the plan is replaced in place; otherwise a new plan is added at the top. Exercises with a blank name are dropped."),
	mcp.WithString("id", mcp.Description("Plan id to update. Omit to create a new plan.")),
	mcp.WithString("title", mcp.Required(), mcp.Description("Plan title (must not be blank)")),
	mcp.WithString("description", mcp.Description("Free-text description")),
	mcp.WithArray("exercises",
		mcp.Description("Exercises in order"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":       map[string]any{"type": "string"},
				"name":     map[string]any{"type": "string"},
				"sets":     map[string]any{"type": "integer"},
				"reps":     map[string]any{"type": "integer"},
				"restTime": map[string]any{"type": "string", "description": "Rest between sets, e.g. '60s'"},
			},
			"required": []string{"name"},
		}),
	),
)

var toolDeletePlan = mcp.NewTool("delete_plan",
	mcp.WithDescription("Delete a workout plan by id. Deleting an unknown id is a no-op."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Plan id")),
)

var toolListAlarms = mcp.NewTool("list_alarms",
	mcp.WithDescription("List workout reminder alarms in creation order."),
)

var toolCreateAlarm = mcp.NewTool("create_alarm",
	mcp.WithDescription("Create an active workout reminder alarm."),
	mcp.WithString("time", mcp.Required(), mcp.Description("Time of day, HH:mm (24-hour)")),
	mcp.WithString("label", mcp.Description("Alarm label. Defaults to 'Workout Reminder'.")),
)

var toolToggleAlarm = mcp.NewTool("toggle_alarm",
	mcp.WithDescription("Flip an alarm between active and inactive."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Alarm id")),
)

var toolDeleteAlarm = mcp.NewTool("delete_alarm",
	mcp.WithDescription("Delete an alarm by id. Deleting an unknown id is a no-op."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Alarm id")),
)

// --- Tool handlers ---

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// mutationError turns repository errors into tool errors. Input problems are
// reported to the caller verbatim.
func (h *handlers) mutationError(tool string, err error) *mcp.CallToolResult {
	var planErr *plans.ValidationError
	var alarmErr *alarms.ValidationError
	switch {
	case errors.As(err, &planErr), errors.As(err, &alarmErr), errors.Is(err, ErrSignedOut):
		return mcp.NewToolResultError(err.Error())
	}
	h.log.Error("mcp "+tool, "error", err)
	return mcp.NewToolResultError("request failed: " + err.Error())
}

func (h *handlers) listPlans(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, _ := auth.UserFromContext(ctx)
	all, err := h.ds.ListPlans(ctx, user)
	if err != nil {
		h.log.Error("mcp list_plans", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(all)
}

func (h *handlers) getPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	plan, ok, err := h.ds.GetPlan(ctx, id)
	if err != nil {
		h.log.Error("mcp get_plan", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("plan %s not found", id)), nil
	}
	return jsonResult(plan)
}

func (h *handlers) savePlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var draft models.PlanDraft
	if err := req.BindArguments(&draft); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	user, _ := auth.UserFromContext(ctx)
	plan, err := h.ds.SavePlan(ctx, user, draft)
	if err != nil {
		return h.mutationError("save_plan", err), nil
	}
	return jsonResult(plan)
}

func (h *handlers) deletePlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	user, _ := auth.UserFromContext(ctx)
	deleted, err := h.ds.DeletePlan(ctx, user, id)
	if err != nil {
		return h.mutationError("delete_plan", err), nil
	}
	return jsonResult(map[string]any{"id": id, "deleted": deleted})
}

func (h *handlers) listAlarms(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all, err := h.ds.ListAlarms(ctx)
	if err != nil {
		h.log.Error("mcp list_alarms", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(all)
}

func (h *handlers) createAlarm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	at, err := req.RequireString("time")
	if err != nil {
		return mcp.NewToolResultError("time parameter is required"), nil
	}
	user, _ := auth.UserFromContext(ctx)
	alarm, err := h.ds.CreateAlarm(ctx, user, at, req.GetString("label", ""))
	if err != nil {
		return h.mutationError("create_alarm", err), nil
	}
	return jsonResult(alarm)
}

func (h *handlers) toggleAlarm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	user, _ := auth.UserFromContext(ctx)
	alarm, ok, err := h.ds.ToggleAlarm(ctx, user, id)
	if err != nil {
		return h.mutationError("toggle_alarm", err), nil
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("alarm %s not found", id)), nil
	}
	return jsonResult(alarm)
}

func (h *handlers) deleteAlarm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	user, _ := auth.UserFromContext(ctx)
	deleted, err := h.ds.DeleteAlarm(ctx, user, id)
	if err != nil {
		return h.mutationError("delete_alarm", err), nil
	}
	return jsonResult(map[string]any{"id": id, "deleted": deleted})
}
