package repository

import (
	"context"
	"time"

	"shopify-session-layer/internal/domain"
	"shopify-session-layer/internal/ports"
)

// TimeoutSessionStorage bounds every call to the wrapped storage with a deadline.
// An expired deadline surfaces as an error wrapping context.DeadlineExceeded, never as not-found.
type TimeoutSessionStorage struct {
	next    ports.SessionStorage
	timeout time.Duration
}

// NewTimeoutSessionStorage wraps next so each operation runs under timeout
func NewTimeoutSessionStorage(next ports.SessionStorage, timeout time.Duration) ports.SessionStorage {
	return &TimeoutSessionStorage{next: next, timeout: timeout}
}

// StoreSession stores the session under the configured timeout
func (s *TimeoutSessionStorage) StoreSession(ctx context.Context, session *domain.Session) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.StoreSession(ctx, session)
}

// LoadSession retrieves a session by ID under the configured timeout.
// A lookup cut short by the deadline reports the context error instead of not-found.
func (s *TimeoutSessionStorage) LoadSession(ctx context.Context, id string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session, err := s.next.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	// A backend that swallowed the deadline must not report not-found.
	if session == nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return session, nil
}

// DeleteSession deletes a session under the configured timeout
func (s *TimeoutSessionStorage) DeleteSession(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.DeleteSession(ctx, id)
}

// DeleteSessions deletes the listed sessions under the configured timeout
func (s *TimeoutSessionStorage) DeleteSessions(ctx context.Context, ids []string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.DeleteSessions(ctx, ids)
}

// FindSessionsByShop retrieves all sessions of a shop under the configured timeout
func (s *TimeoutSessionStorage) FindSessionsByShop(ctx context.Context, shop string) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.FindSessionsByShop(ctx, shop)
}
