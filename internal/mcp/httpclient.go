package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/ironpulse/internal/models"
)

// HTTPClient implements DataSource by calling the IronPulse REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. token is
// sent as a bearer token and identifies the acting user to the server.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Path    string
	Status  int
	Message string `json:"error"`
	Field   string `json:"field"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("httpclient: %s returned %d: %s (%s)", e.Path, e.Status, e.Message, e.Field)
	}
	return fmt.Sprintf("httpclient: %s returned %d: %s", e.Path, e.Status, e.Message)
}

// do sends a request and decodes a JSON response into out (if non-nil).
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("httpclient: encode %s: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Path: path, Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func (c *HTTPClient) ListPlans(ctx context.Context, _ models.User) ([]models.WorkoutPlan, error) {
	var all []models.WorkoutPlan
	if err := c.do(ctx, http.MethodGet, "/api/v1/plans", nil, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (c *HTTPClient) GetPlan(ctx context.Context, id string) (models.WorkoutPlan, bool, error) {
	var plan models.WorkoutPlan
	err := c.do(ctx, http.MethodGet, "/api/v1/plans/"+url.PathEscape(id), nil, &plan)
	if isNotFound(err) {
		return models.WorkoutPlan{}, false, nil
	}
	if err != nil {
		return models.WorkoutPlan{}, false, err
	}
	return plan, true, nil
}

// SavePlan creates a plan with POST, or saves over an id with PUT.
func (c *HTTPClient) SavePlan(ctx context.Context, _ models.User, draft models.PlanDraft) (models.WorkoutPlan, error) {
	method, path := http.MethodPost, "/api/v1/plans"
	if draft.ID != "" {
		method, path = http.MethodPut, "/api/v1/plans/"+url.PathEscape(draft.ID)
	}
	var plan models.WorkoutPlan
	if err := c.do(ctx, method, path, draft, &plan); err != nil {
		return models.WorkoutPlan{}, err
	}
	return plan, nil
}

// DeletePlan reports true once the server confirms the id is gone. The server
// answers 204 whether or not the plan existed.
func (c *HTTPClient) DeletePlan(ctx context.Context, _ models.User, id string) (bool, error) {
	if err := c.do(ctx, http.MethodDelete, "/api/v1/plans/"+url.PathEscape(id), nil, nil); err != nil {
		return false, err
	}
	return true, nil
}

func (c *HTTPClient) ListAlarms(ctx context.Context) ([]models.Alarm, error) {
	var all []models.Alarm
	if err := c.do(ctx, http.MethodGet, "/api/v1/alarms", nil, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (c *HTTPClient) CreateAlarm(ctx context.Context, _ models.User, at, label string) (models.Alarm, error) {
	body := map[string]string{"time": at, "label": label}
	var alarm models.Alarm
	if err := c.do(ctx, http.MethodPost, "/api/v1/alarms", body, &alarm); err != nil {
		return models.Alarm{}, err
	}
	return alarm, nil
}

func (c *HTTPClient) ToggleAlarm(ctx context.Context, _ models.User, id string) (models.Alarm, bool, error) {
	var alarm models.Alarm
	err := c.do(ctx, http.MethodPost, "/api/v1/alarms/"+url.PathEscape(id)+"/toggle", nil, &alarm)
	if isNotFound(err) {
		return models.Alarm{}, false, nil
	}
	if err != nil {
		return models.Alarm{}, false, err
	}
	return alarm, true, nil
}

func (c *HTTPClient) DeleteAlarm(ctx context.Context, _ models.User, id string) (bool, error) {
	if err := c.do(ctx, http.MethodDelete, "/api/v1/alarms/"+url.PathEscape(id), nil, nil); err != nil {
		return false, err
	}
	return true, nil
}
