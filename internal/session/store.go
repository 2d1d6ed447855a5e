package session

import (
	"context"
	"time"
)

// Session represents an authenticated user session.
type Session struct {
	SessionID string
	User      User
	CreatedAt time.Time
	ExpiresAt time.Time // absolute expiry time
}

// Store defines how sessions are stored and retrieved.
// Get returns (nil, nil) when the session does not exist.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, sessionID string) error
}
