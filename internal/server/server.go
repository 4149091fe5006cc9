package server

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/claude/ironpulse/internal/alarms"
	"github.com/claude/ironpulse/internal/auth"
	"github.com/claude/ironpulse/internal/plans"
	"github.com/claude/ironpulse/internal/session"
	"github.com/go-chi/chi/v5"
)

// Deps are the components the HTTP handlers operate on.
type Deps struct {
	Sessions *session.Manager
	OTP      *auth.OTPService
	Tokens   *auth.TokenIssuer
	Plans    *plans.Repository
	Alarms   *alarms.Repository
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	sessions *session.Manager
	otp      *auth.OTPService
	tokens   *auth.TokenIssuer
	plans    *plans.Repository
	alarms   *alarms.Repository
	log      *slog.Logger
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(deps Deps, log *slog.Logger) *Server {
	s := &Server{
		sessions: deps.Sessions,
		otp:      deps.OTP,
		tokens:   deps.Tokens,
		plans:    deps.Plans,
		alarms:   deps.Alarms,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(Identity(s.tokens, s.sessions))

	// Sign-in endpoints (anonymous allowed)
	s.router.Route("/api/v1/session", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.With(RequireToken).Delete("/", s.handleLogout)
		r.Post("/google", s.handleGoogleLogin)
		r.Post("/otp", s.handleRequestOTP)
		r.Post("/otp/verify", s.handleVerifyOTP)
	})

	s.router.Get("/api/v1/exercises/template", s.handleExerciseTemplate)

	// Data endpoints (signed-in user required)
	s.router.Group(func(r chi.Router) {
		r.Use(RequireUser)
		r.Get("/api/v1/plans", s.handleListPlans)
		r.Post("/api/v1/plans", s.handleCreatePlan)
		r.Get("/api/v1/plans/{id}", s.handleGetPlan)
		r.Put("/api/v1/plans/{id}", s.handleUpdatePlan)
		r.Delete("/api/v1/plans/{id}", s.handleDeletePlan)

		r.Get("/api/v1/alarms", s.handleListAlarms)
		r.Post("/api/v1/alarms", s.handleCreateAlarm)
		r.Post("/api/v1/alarms/{id}/toggle", s.handleToggleAlarm)
		r.Delete("/api/v1/alarms/{id}", s.handleDeleteAlarm)
	})
}

// SetMCP mounts an MCP streamable HTTP handler at /mcp.
func (s *Server) SetMCP(h http.Handler) {
	s.router.Handle("/mcp", h)
}

// SetFrontend mounts a SPA filesystem.
// Unmatched routes serve index.html for client-side routing.
func (s *Server) SetFrontend(webFS fs.FS) {
	fileServer := http.FileServerFS(webFS)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		// Try to serve the exact file first
		f, err := webFS.Open(r.URL.Path[1:]) // strip leading /
		if err == nil {
			f.Close()
			fileServer.ServeHTTP(w, r)
			return
		}
		// Fallback to index.html for SPA routing
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}
