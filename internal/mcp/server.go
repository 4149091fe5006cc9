// Package mcp exposes workout plans and alarms to MCP clients.
package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/ironpulse/internal/auth"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("IronPulse", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("IronPulse workout planner. List, edit and delete workout plans, and manage workout reminder alarms. Mutations act as the signed-in user."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListPlans, Handler: h.listPlans},
		server.ServerTool{Tool: toolGetPlan, Handler: h.getPlan},
		server.ServerTool{Tool: toolSavePlan, Handler: h.savePlan},
		server.ServerTool{Tool: toolDeletePlan, Handler: h.deletePlan},
		server.ServerTool{Tool: toolListAlarms, Handler: h.listAlarms},
		server.ServerTool{Tool: toolCreateAlarm, Handler: h.createAlarm},
		server.ServerTool{Tool: toolToggleAlarm, Handler: h.toggleAlarm},
		server.ServerTool{Tool: toolDeleteAlarm, Handler: h.deleteAlarm},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resPlans, Handler: h.plansResource},
		server.ServerResource{Resource: resAlarms, Handler: h.alarmsResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resPlans = mcp.NewResource(
	"ironpulse://plans",
	"Workout Plans",
	mcp.WithResourceDescription("All saved workout plans, newest first, with their exercises"),
	mcp.WithMIMEType("application/json"),
)

var resAlarms = mcp.NewResource(
	"ironpulse://alarms",
	"Reminder Alarms",
	mcp.WithResourceDescription("Workout reminder alarms in creation order"),
	mcp.WithMIMEType("application/json"),
)

// HTTPHandler serves s over streamable HTTP. The acting user resolved by the
// HTTP identity middleware is carried into tool handlers.
func HTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if u, ok := auth.UserFromContext(r.Context()); ok {
				return auth.WithUser(ctx, u)
			}
			return ctx
		}),
	)
}
