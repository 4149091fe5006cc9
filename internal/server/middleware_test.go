package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/ironpulse/internal/auth"
	"github.com/claude/ironpulse/internal/models"
	"github.com/claude/ironpulse/internal/session"
	"github.com/claude/ironpulse/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// resolveIdentity runs Identity over a handler that records the resolved user.
func resolveIdentity(t *testing.T, tokens *auth.TokenIssuer, sessions *session.Manager, req *http.Request) (*httptest.ResponseRecorder, models.User, bool) {
	t.Helper()
	var got models.User
	var ok bool
	handler := Identity(tokens, sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = auth.UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, got, ok
}

// TestIdentityAnonymous verifies requests without a token or session pass
// through with no user.
func TestIdentityAnonymous(t *testing.T) {
	sessions := session.New(storage.NewMemory(), testLogger())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec, _, ok := resolveIdentity(t, auth.NewTokenIssuer("s", time.Hour), sessions, req)
	if rec.Code != http.StatusOK || ok {
		t.Errorf("status = %d, user present = %v; want 200 and anonymous", rec.Code, ok)
	}
}

// TestIdentitySessionUser verifies the session manager's user is used for
// loopback requests that send no bearer token.
func TestIdentitySessionUser(t *testing.T) {
	sessions := session.New(storage.NewMemory(), testLogger())
	u := models.User{ID: "google-1", EmailID: "a@b.com"}
	if err := sessions.Login(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	for _, addr := range []string{"127.0.0.1:51000", "[::1]:51000"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		_, got, ok := resolveIdentity(t, auth.NewTokenIssuer("s", time.Hour), sessions, req)
		if !ok || got.ID != "google-1" {
			t.Errorf("%s: user = %+v, %v; want google-1", addr, got, ok)
		}
	}
}

// TestIdentityRemoteIgnoresSession verifies a remote request without a token
// stays anonymous while a device session is active, so RequireUser turns it
// away.
func TestIdentityRemoteIgnoresSession(t *testing.T) {
	sessions := session.New(storage.NewMemory(), testLogger())
	if err := sessions.Login(context.Background(), models.User{ID: "google-1"}); err != nil {
		t.Fatal(err)
	}
	for _, addr := range []string{"192.0.2.1:1234", "100.64.0.7:443", "[fd7a:115c:a1e0::1]:80"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		_, got, ok := resolveIdentity(t, auth.NewTokenIssuer("s", time.Hour), sessions, req)
		if ok {
			t.Errorf("%s: user = %+v, want anonymous", addr, got)
		}

		handler := Identity(auth.NewTokenIssuer("s", time.Hour), sessions)(RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", addr, rec.Code)
		}
	}
}

func TestRequireToken(t *testing.T) {
	handler := RequireToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without token = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("with token = %d, want 204", rec.Code)
	}
}

// TestIdentityBearerWins verifies a valid token takes precedence over the
// session user.
func TestIdentityBearerWins(t *testing.T) {
	sessions := session.New(storage.NewMemory(), testLogger())
	sessions.Login(context.Background(), models.User{ID: "google-1"})
	tokens := auth.NewTokenIssuer("s", time.Hour)
	token, err := tokens.Issue(models.User{ID: "phone-5551234", PhoneNumber: "5551234"})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	_, got, ok := resolveIdentity(t, tokens, sessions, req)
	if !ok || got.ID != "phone-5551234" {
		t.Errorf("user = %+v, %v; want phone-5551234", got, ok)
	}
}

func TestIdentityRejectsBadToken(t *testing.T) {
	sessions := session.New(storage.NewMemory(), testLogger())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec, _, _ := resolveIdentity(t, auth.NewTokenIssuer("s", time.Hour), sessions, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireUser(t *testing.T) {
	handler := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithUser(req.Context(), models.User{ID: "google-1"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("signed-in status = %d, want 200", rec.Code)
	}
}

// TestCORSPreflight verifies OPTIONS requests short-circuit with the allowed
// methods and headers.
func TestCORSPreflight(t *testing.T) {
	called := false
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/plans", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if called {
		t.Error("preflight reached the next handler")
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PUT, DELETE, OPTIONS" {
		t.Errorf("allow-methods = %q", got)
	}
}

// TestRequestLoggingStatus verifies the status writer captures the handler's code.
func TestRequestLoggingStatus(t *testing.T) {
	handler := RequestLogging(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
}
