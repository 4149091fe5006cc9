package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/claude/ironpulse/internal/alarms"
	"github.com/claude/ironpulse/internal/auth"
	"github.com/claude/ironpulse/internal/models"
	"github.com/claude/ironpulse/internal/plans"
	"github.com/claude/ironpulse/internal/session"
	"github.com/go-chi/chi/v5"
)

// --- Session ---

type sessionResponse struct {
	State string       `json:"state"`
	User  *models.User `json:"user"`
}

type loginResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.UserFromContext(r.Context()); ok {
		writeJSON(w, http.StatusOK, sessionResponse{State: session.Authenticated.String(), User: &u})
		return
	}
	// The device session is not this caller's identity.
	state := s.sessions.State()
	if state == session.Authenticated {
		state = session.Anonymous
	}
	writeJSON(w, http.StatusOK, sessionResponse{State: state.String()})
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var id auth.GoogleIdentity
	if err := json.NewDecoder(r.Body).Decode(&id); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	u, err := auth.GoogleUser(id, time.Now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error(), "field": "emailId"})
		return
	}
	s.login(w, r, u)
}

type otpRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Code        string `json:"code"`
}

func (s *Server) handleRequestOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.otp.Request(r.Context(), req.PhoneNumber); err != nil {
		if errors.Is(err, auth.ErrInvalidPhone) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error(), "field": "phoneNumber"})
			return
		}
		s.log.Error("otp request", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "code sent"})
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	u, err := s.otp.Verify(r.Context(), req.PhoneNumber, req.Code)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidPhone):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error(), "field": "phoneNumber"})
		return
	case errors.Is(err, auth.ErrInvalidCode), errors.Is(err, auth.ErrNoChallenge),
		errors.Is(err, auth.ErrExpired), errors.Is(err, auth.ErrTooManyAttempts):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error(), "field": "code"})
		return
	default:
		s.log.Error("otp verify", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.login(w, r, u)
}

// login persists u as the session user and answers with a bearer token.
func (s *Server) login(w http.ResponseWriter, r *http.Request, u models.User) {
	if err := s.sessions.Login(r.Context(), u); err != nil {
		s.log.Error("session login", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		s.log.Error("issuing token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.log.Info("user signed in", "user_id", u.ID)
	writeJSON(w, http.StatusOK, loginResponse{User: u, Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(r.Context()); err != nil {
		s.log.Error("session logout", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Plans ---

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	all, err := s.plans.List(r.Context(), u)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, ok, err := s.plans.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plan not found"})
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var draft models.PlanDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	s.savePlan(w, r, draft, http.StatusCreated)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	var draft models.PlanDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	draft.ID = chi.URLParam(r, "id")
	s.savePlan(w, r, draft, http.StatusOK)
}

func (s *Server) savePlan(w http.ResponseWriter, r *http.Request, draft models.PlanDraft, status int) {
	u, _ := auth.UserFromContext(r.Context())
	plan, err := s.plans.Save(r.Context(), u, draft)
	var verr *plans.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message, "field": verr.Field})
		return
	case err != nil:
		s.log.Error("saving plan", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, status, plan)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	if _, err := s.plans.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExerciseTemplate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.NewExercise())
}

// --- Alarms ---

type createAlarmRequest struct {
	Time  string `json:"time"`
	Label string `json:"label"`
}

func (s *Server) handleListAlarms(w http.ResponseWriter, r *http.Request) {
	all, err := s.alarms.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleCreateAlarm(w http.ResponseWriter, r *http.Request) {
	var req createAlarmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	u, _ := auth.UserFromContext(r.Context())
	alarm, err := s.alarms.Create(r.Context(), u, req.Time, req.Label)
	var verr *alarms.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message, "field": verr.Field})
		return
	case err != nil:
		s.log.Error("creating alarm", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, alarm)
}

func (s *Server) handleToggleAlarm(w http.ResponseWriter, r *http.Request) {
	alarm, ok, err := s.alarms.Toggle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "alarm not found"})
		return
	}
	writeJSON(w, http.StatusOK, alarm)
}

func (s *Server) handleDeleteAlarm(w http.ResponseWriter, r *http.Request) {
	if _, err := s.alarms.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
