package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
)

// SessionStore defines the interface for snapshotting session state. This
// enables best-effort "stop & resume" across shell restarts; there are no
// durability guarantees beyond what the backing store provides.
type SessionStore interface {
	// Save persists the session for a given session ID.
	Save(ctx context.Context, sessionID string, sess *domain.Session) error

	// Load retrieves the session for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the known session IDs.
	List(ctx context.Context) ([]string, error)
}
