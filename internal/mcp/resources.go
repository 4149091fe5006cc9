package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/ironpulse/internal/auth"
	"github.com/mark3labs/mcp-go/mcp"
)

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) plansResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	user, _ := auth.UserFromContext(ctx)
	all, err := h.ds.ListPlans(ctx, user)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, all)
}

func (h *handlers) alarmsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	all, err := h.ds.ListAlarms(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, all)
}
