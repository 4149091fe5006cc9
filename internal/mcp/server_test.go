package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/ironpulse/internal/alarms"
	"github.com/claude/ironpulse/internal/auth"
	"github.com/claude/ironpulse/internal/models"
	"github.com/claude/ironpulse/internal/plans"
	"github.com/claude/ironpulse/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

var testUser = models.User{ID: "google-1700000000000", EmailID: "lifter@example.com"}

func newTestHandlers(t *testing.T) *handlers {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := storage.NewMemory()
	return &handlers{
		ds:  &Local{Plans: plans.NewRepository(s, log), Alarms: alarms.NewRepository(s, log)},
		log: log,
	}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] is %T, want TextContent", res.Content[0])
	}
	return text.Text
}

// TestSavePlanTool verifies save_plan binds nested exercises, stamps the acting
// user and makes the plan visible to get_plan.
func TestSavePlanTool(t *testing.T) {
	h := newTestHandlers(t)
	ctx := auth.WithUser(context.Background(), testUser)

	res, err := h.savePlan(ctx, callRequest(map[string]any{
		"title":       "Leg Day",
		"description": "Heavy",
		"exercises": []any{
			map[string]any{"name": "Squat", "sets": 5, "reps": 5, "restTime": "120s"},
			map[string]any{"name": "   "},
		},
	}))
	if err != nil || res.IsError {
		t.Fatalf("save_plan = %v, %v", resultText(t, res), err)
	}
	var saved models.WorkoutPlan
	if err := json.Unmarshal([]byte(resultText(t, res)), &saved); err != nil {
		t.Fatal(err)
	}
	if saved.UserID != testUser.ID {
		t.Errorf("userId = %q, want %q", saved.UserID, testUser.ID)
	}
	if len(saved.Exercises) != 1 || saved.Exercises[0].Name != "Squat" || saved.Exercises[0].Sets != 5 {
		t.Errorf("exercises = %+v, want only Squat 5x5", saved.Exercises)
	}

	res, _ = h.getPlan(ctx, callRequest(map[string]any{"id": saved.ID}))
	if res.IsError || !strings.Contains(resultText(t, res), "Leg Day") {
		t.Errorf("get_plan = %s", resultText(t, res))
	}
}

func TestSavePlanToolErrors(t *testing.T) {
	h := newTestHandlers(t)

	// No acting user.
	res, _ := h.savePlan(context.Background(), callRequest(map[string]any{"title": "X"}))
	if !res.IsError || !strings.Contains(resultText(t, res), "sign in") {
		t.Errorf("save_plan signed out = %s", resultText(t, res))
	}

	// Blank title.
	ctx := auth.WithUser(context.Background(), testUser)
	res, _ = h.savePlan(ctx, callRequest(map[string]any{"title": "  "}))
	if !res.IsError || !strings.Contains(resultText(t, res), "title") {
		t.Errorf("save_plan blank title = %s", resultText(t, res))
	}
}

// TestSignedOutMutationsRefused verifies delete and toggle tools refuse to run
// without an acting user and leave the data untouched.
func TestSignedOutMutationsRefused(t *testing.T) {
	h := newTestHandlers(t)
	ctx := auth.WithUser(context.Background(), testUser)
	local := h.ds.(*Local)
	plan, err := local.SavePlan(ctx, testUser, models.PlanDraft{Title: "Keep"})
	if err != nil {
		t.Fatal(err)
	}
	alarm, err := local.CreateAlarm(ctx, testUser, "07:00", "")
	if err != nil {
		t.Fatal(err)
	}

	anon := context.Background()
	calls := map[string]func() (*mcp.CallToolResult, error){
		"delete_plan":  func() (*mcp.CallToolResult, error) { return h.deletePlan(anon, callRequest(map[string]any{"id": plan.ID})) },
		"toggle_alarm": func() (*mcp.CallToolResult, error) { return h.toggleAlarm(anon, callRequest(map[string]any{"id": alarm.ID})) },
		"delete_alarm": func() (*mcp.CallToolResult, error) { return h.deleteAlarm(anon, callRequest(map[string]any{"id": alarm.ID})) },
	}
	for name, call := range calls {
		res, err := call()
		if err != nil || !res.IsError || !strings.Contains(resultText(t, res), "sign in") {
			t.Errorf("%s signed out = %v, %v", name, resultText(t, res), err)
		}
	}

	if _, ok, _ := local.GetPlan(ctx, plan.ID); !ok {
		t.Error("plan deleted without a user")
	}
	all, _ := local.ListAlarms(ctx)
	if len(all) != 1 || !all[0].IsActive {
		t.Errorf("alarms = %+v, want one active alarm", all)
	}
}

func TestGetPlanToolNotFound(t *testing.T) {
	h := newTestHandlers(t)
	res, _ := h.getPlan(context.Background(), callRequest(map[string]any{"id": "missing"}))
	if !res.IsError {
		t.Error("get_plan(missing) should be an error result")
	}
	res, _ = h.getPlan(context.Background(), callRequest(nil))
	if !res.IsError {
		t.Error("get_plan without id should be an error result")
	}
}

// TestAlarmTools walks create, toggle, list and delete through the tool handlers.
func TestAlarmTools(t *testing.T) {
	h := newTestHandlers(t)
	ctx := auth.WithUser(context.Background(), testUser)

	res, _ := h.createAlarm(ctx, callRequest(map[string]any{"time": "06:30"}))
	if res.IsError {
		t.Fatalf("create_alarm = %s", resultText(t, res))
	}
	var a models.Alarm
	if err := json.Unmarshal([]byte(resultText(t, res)), &a); err != nil {
		t.Fatal(err)
	}
	if a.Label != models.DefaultAlarmLabel || !a.IsActive {
		t.Errorf("alarm = %+v", a)
	}

	res, _ = h.toggleAlarm(ctx, callRequest(map[string]any{"id": a.ID}))
	if res.IsError || !strings.Contains(resultText(t, res), `"isActive":false`) {
		t.Errorf("toggle_alarm = %s", resultText(t, res))
	}

	res, _ = h.toggleAlarm(ctx, callRequest(map[string]any{"id": "missing"}))
	if !res.IsError {
		t.Error("toggle_alarm(missing) should be an error result")
	}

	res, _ = h.createAlarm(ctx, callRequest(map[string]any{"time": "noon"}))
	if !res.IsError {
		t.Error("create_alarm(noon) should be an error result")
	}

	res, _ = h.deleteAlarm(ctx, callRequest(map[string]any{"id": a.ID}))
	if res.IsError || !strings.Contains(resultText(t, res), `"deleted":true`) {
		t.Errorf("delete_alarm = %s", resultText(t, res))
	}

	res, _ = h.listAlarms(ctx, callRequest(nil))
	if got := strings.TrimSpace(resultText(t, res)); got != "[]" {
		t.Errorf("list_alarms after delete = %s, want []", got)
	}
}

func TestPlansResource(t *testing.T) {
	h := newTestHandlers(t)
	ctx := auth.WithUser(context.Background(), testUser)
	h.ds.SavePlan(ctx, testUser, models.PlanDraft{Title: "Core"})

	var req mcp.ReadResourceRequest
	req.Params.URI = "ironpulse://plans"
	contents, err := h.plansResource(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents[0] is %T", contents[0])
	}
	if text.URI != "ironpulse://plans" || !strings.Contains(text.Text, `"title":"Core"`) {
		t.Errorf("resource = %+v", text)
	}
}

// TestNewRegistersTools verifies New builds a server without panicking on
// tool or resource definitions.
func TestNewRegistersTools(t *testing.T) {
	h := newTestHandlers(t)
	if s := New(h.ds, "test", h.log); s == nil {
		t.Fatal("New returned nil")
	}
}
