// Package storetest checks domain.SessionStore implementations against
// the behaviour the auth gate relies on.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/duynhne/sut-service/internal/core/domain"
)

// Run exercises store with the tokens "missing" and "tok-1"; it leaves
// no records behind.
func Run(t *testing.T, store domain.SessionStore) {
	t.Helper()
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Get unknown", func(t *testing.T) {
		s, err := store.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if s != nil {
			t.Fatalf("expected nil session, got %+v", s)
		}
	})

	t.Run("Create then Get", func(t *testing.T) {
		if err := store.Create(ctx, "tok-1", domain.Session{OwnerID: "testuser", CreatedAt: created}); err != nil {
			t.Fatalf("Create: %v", err)
		}
		s, err := store.Get(ctx, "tok-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if s == nil || s.OwnerID != "testuser" || !s.CreatedAt.Equal(created) {
			t.Fatalf("unexpected session %+v", s)
		}
	})

	t.Run("Create overwrites", func(t *testing.T) {
		if err := store.Create(ctx, "tok-1", domain.Session{OwnerID: "other", CreatedAt: created}); err != nil {
			t.Fatalf("Create: %v", err)
		}
		s, _ := store.Get(ctx, "tok-1")
		if s == nil || s.OwnerID != "other" {
			t.Fatalf("expected overwritten owner, got %+v", s)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, "tok-1"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		s, err := store.Get(ctx, "tok-1")
		if err != nil || s != nil {
			t.Fatalf("expected session gone, got %+v (err %v)", s, err)
		}
		if err := store.Delete(ctx, "tok-1"); err != nil {
			t.Fatalf("Delete of unknown token should succeed: %v", err)
		}
	})
}
