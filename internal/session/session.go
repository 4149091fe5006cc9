// Package session tracks the currently authenticated identity and persists it
// under the session key of the store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/claude/ironpulse/internal/models"
	"github.com/claude/ironpulse/internal/storage"
)

// State is the lifecycle state of a Manager.
type State int

const (
	// Loading is the state before Restore has completed.
	Loading State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrInvalidUser is returned by Login for a user without an id.
var ErrInvalidUser = errors.New("session: user has no id")

// Manager holds the in-memory session and mirrors it to the store.
type Manager struct {
	store storage.Store
	log   *slog.Logger

	mu    sync.RWMutex
	state State
	user  models.User
}

// New creates a Manager in the Loading state.
func New(store storage.Store, log *slog.Logger) *Manager {
	return &Manager{store: store, log: log, state: Loading}
}

// Restore reads the persisted session. A missing or malformed record leaves
// the manager Anonymous; only backend failures are returned.
func (m *Manager) Restore(ctx context.Context) (State, error) {
	var u models.User
	found, err := storage.LoadJSON(ctx, m.store, storage.KeySession, &u)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state, m.user = Anonymous, models.User{}

	switch {
	case errors.Is(err, storage.ErrCorrupt):
		m.log.Warn("ignoring malformed session record", "error", err)
		return m.state, nil
	case err != nil:
		return m.state, fmt.Errorf("restoring session: %w", err)
	case !found:
		return m.state, nil
	case !u.Valid():
		m.log.Warn("ignoring session record without id")
		return m.state, nil
	}

	m.state, m.user = Authenticated, u
	return m.state, nil
}

// Login replaces the current identity with u and persists it.
func (m *Manager) Login(ctx context.Context, u models.User) error {
	if !u.Valid() {
		return ErrInvalidUser
	}
	if err := storage.SaveJSON(ctx, m.store, storage.KeySession, u); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	m.mu.Lock()
	m.state, m.user = Authenticated, u
	m.mu.Unlock()

	m.log.Info("session started", "user_id", u.ID)
	return nil
}

// Logout ends the session and removes the persisted record.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Remove(ctx, storage.KeySession); err != nil {
		return fmt.Errorf("removing session: %w", err)
	}

	m.mu.Lock()
	prev := m.user.ID
	m.state, m.user = Anonymous, models.User{}
	m.mu.Unlock()

	if prev != "" {
		m.log.Info("session ended", "user_id", prev)
	}
	return nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Current returns the authenticated user, if any.
func (m *Manager) Current() (models.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user, m.state == Authenticated
}
