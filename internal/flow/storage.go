package flow

import "context"

// Storage defines the persistence contract for conversational sessions.
type Storage interface {
	// GetSession returns the active session for the user or ErrSessionNotFound.
	GetSession(ctx context.Context, userID int64) (*Session, error)
	// SetSession saves the provided session for the user.
	SetSession(ctx context.Context, userID int64, session *Session) error
	// ClearSession removes the session for the user.
	ClearSession(ctx context.Context, userID int64) error
}
