package ports

import (
	"context"

	"github.com/flowlab-edu/flowlab/pkg/domain"
)

// SessionStore defines the interface for persisting editing sessions.
// This allows a classroom server to survive restarts ("Stop & Resume").
type SessionStore interface {
	// Save persists the session snapshot for a given session ID.
	Save(ctx context.Context, sessionID string, session *domain.Session) error

	// Load retrieves the session for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns all known session IDs.
	List(ctx context.Context) ([]string, error)
}
