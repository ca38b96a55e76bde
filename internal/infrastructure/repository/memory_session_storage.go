package repository

import (
	"context"
	"sync"

	"shopify-session-layer/internal/domain"
	"shopify-session-layer/internal/ports"
)

// MemorySessionStorage keeps sessions in process memory.
// Stored and returned sessions are copies, so callers never share state with the map.
type MemorySessionStorage struct {
	sessions map[string]*domain.Session
	mutex    sync.RWMutex
}

// NewMemorySessionStorage creates an empty in-memory session storage
func NewMemorySessionStorage() ports.SessionStorage {
	return &MemorySessionStorage{
		sessions: make(map[string]*domain.Session),
	}
}

// StoreSession validates and stores a copy of the session, replacing any previous one
func (r *MemorySessionStorage) StoreSession(ctx context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.sessions[session.ID] = session.Clone()
	return nil
}

// LoadSession retrieves a copy of the session, or nil when none exists
func (r *MemorySessionStorage) LoadSession(ctx context.Context, id string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	session, exists := r.sessions[id]
	if !exists {
		return nil, nil
	}
	return session.Clone(), nil
}

// DeleteSession deletes a session; deleting a missing session succeeds
func (r *MemorySessionStorage) DeleteSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.sessions, id)
	return nil
}

// DeleteSessions deletes every listed session under one lock
func (r *MemorySessionStorage) DeleteSessions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, id := range ids {
		delete(r.sessions, id)
	}
	return nil
}

// FindSessionsByShop retrieves copies of all sessions of a shop
func (r *MemorySessionStorage) FindSessionsByShop(ctx context.Context, shop string) ([]*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	sessions := []*domain.Session{}
	for _, session := range r.sessions {
		if session.Shop == shop {
			sessions = append(sessions, session.Clone())
		}
	}
	return sessions, nil
}
