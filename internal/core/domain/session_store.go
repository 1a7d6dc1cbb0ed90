package domain

import (
	"context"
	"time"
)

// Session is the server-side record behind a session token.
type Session struct {
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore defines the data-access contract for session records.
// Implementations live in internal/core/repository (Core layer).
//
// Records are never expired by a store; they live until Delete is called
// or the backing storage is cleared.
type SessionStore interface {
	// Create stores the record under token. An existing record with the
	// same token is overwritten.
	Create(ctx context.Context, token string, s Session) error

	// Get returns the record for token.
	// Returns (nil, nil) when the token does not match any session.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes the record for token. Deleting an unknown token is
	// not an error.
	Delete(ctx context.Context, token string) error
}
