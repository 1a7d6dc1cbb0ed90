package repository

import (
	"context"
	"errors"

	"github.com/duynhne/sut-service/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS sut_sessions (
    token      text PRIMARY KEY,
    owner_id   text NOT NULL,
    created_at timestamptz NOT NULL
)`

// PgxSessionStore implements domain.SessionStore using pgxpool.
type PgxSessionStore struct {
	pool *pgxpool.Pool
}

// NewPgxSessionStore creates a new PgxSessionStore.
func NewPgxSessionStore(pool *pgxpool.Pool) *PgxSessionStore {
	return &PgxSessionStore{pool: pool}
}

// EnsureSchema creates the sessions table when missing.
func (r *PgxSessionStore) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, sessionSchema)
	return err
}

// Create upserts the session; a colliding token overwrites the old row.
func (r *PgxSessionStore) Create(ctx context.Context, token string, s domain.Session) error {
	query := `
		INSERT INTO sut_sessions (token, owner_id, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE SET owner_id = EXCLUDED.owner_id, created_at = EXCLUDED.created_at
	`
	_, err := r.pool.Exec(ctx, query, token, s.OwnerID, s.CreatedAt)
	return err
}

// Get looks up the session by token.
// Returns (nil, nil) when the token does not match any session.
func (r *PgxSessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	query := `SELECT owner_id, created_at FROM sut_sessions WHERE token = $1`

	var s domain.Session
	err := r.pool.QueryRow(ctx, query, token).Scan(&s.OwnerID, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &s, nil
}

// Delete removes the session row, if any.
func (r *PgxSessionStore) Delete(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sut_sessions WHERE token = $1`, token)
	return err
}
