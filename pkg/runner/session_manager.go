package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// SessionManager handles the lifecycle of a durable session. It coordinates
// between the Runner, the Shell, and the SessionStore.
type SessionManager struct {
	Store ports.SessionStore
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(store ports.SessionStore) *SessionManager {
	return &SessionManager{Store: store}
}

// LoadOrStart attempts to load an existing session. If not found, it starts
// a new one. The boolean reports whether it was loaded (true) or new.
func (sm *SessionManager) LoadOrStart(ctx context.Context, shell Shell, sessionID string) (*domain.Session, bool, error) {
	if sessionID == "" || sm.Store == nil {
		// Ephemeral session.
		return shell.NewSession(), false, nil
	}

	sess, err := sm.Store.Load(ctx, sessionID)
	if err == nil {
		return sess, true, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, false, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	sess = shell.NewSession()
	// Save immediately to reserve the ID.
	if err := sm.Store.Save(ctx, sessionID, sess); err != nil {
		return nil, false, fmt.Errorf("failed to initialize session %s: %w", sessionID, err)
	}
	return sess, false, nil
}

// Save persists the session.
func (sm *SessionManager) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	if sessionID == "" || sm.Store == nil {
		return nil
	}
	return sm.Store.Save(ctx, sessionID, sess)
}
