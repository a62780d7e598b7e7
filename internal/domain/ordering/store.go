package ordering

import (
	"context"

	"sorvetao/internal/core/id"
)

// SessionStore keeps live order-entry sessions. Implementations serialise
// calls per session and return apperror NotFound for unknown or expired IDs.
// Sessions are never persisted.
type SessionStore interface {
	// Create registers a new session.
	Create(ctx context.Context, s *Session) error

	// View runs fn with the session locked for reading.
	View(ctx context.Context, sessionID id.ID, fn func(s *Session) error) error

	// Update runs fn with the session locked for writing.
	Update(ctx context.Context, sessionID id.ID, fn func(s *Session) error) error

	// Finish runs fn with the session locked and removes the session when fn
	// succeeds. Used by checkout so no change can slip in between pricing and removal.
	Finish(ctx context.Context, sessionID id.ID, fn func(s *Session) error) error

	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID id.ID) error
}
