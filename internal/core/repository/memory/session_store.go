// Package memory holds the process-local session store. It has no
// network dependencies so it can back the edge-function build.
package memory

import (
	"context"
	"sync"

	"github.com/duynhne/sut-service/internal/core/domain"
)

// SessionStore implements domain.SessionStore with a map.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domain.Session)}
}

func (m *SessionStore) Create(_ context.Context, token string, s domain.Session) error {
	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()
	return nil
}

func (m *SessionStore) Get(_ context.Context, token string) (*domain.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *SessionStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored records.
func (m *SessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
