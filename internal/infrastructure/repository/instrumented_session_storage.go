package repository

import (
	"context"
	"time"

	"shopify-session-layer/internal/domain"
	"shopify-session-layer/internal/infrastructure/metrics"
	"shopify-session-layer/internal/ports"
)

// InstrumentedSessionStorage records the latency and outcome of every storage operation
type InstrumentedSessionStorage struct {
	next    ports.SessionStorage
	backend string
}

// NewInstrumentedSessionStorage wraps next, labelling its metrics with backend
func NewInstrumentedSessionStorage(next ports.SessionStorage, backend string) ports.SessionStorage {
	return &InstrumentedSessionStorage{next: next, backend: backend}
}

// observe records one operation in the storage duration histogram
func (s *InstrumentedSessionStorage) observe(operation string, start time.Time, err error) {
	metrics.SessionStorageDuration.
		WithLabelValues(s.backend, operation, metrics.StatusLabel(err)).
		Observe(time.Since(start).Seconds())
}

// StoreSession stores the session and records the "store" operation
func (s *InstrumentedSessionStorage) StoreSession(ctx context.Context, session *domain.Session) error {
	start := time.Now()
	err := s.next.StoreSession(ctx, session)
	s.observe("store", start, err)
	return err
}

// LoadSession retrieves a session and records the "load" operation
func (s *InstrumentedSessionStorage) LoadSession(ctx context.Context, id string) (*domain.Session, error) {
	start := time.Now()
	session, err := s.next.LoadSession(ctx, id)
	s.observe("load", start, err)
	return session, err
}

// DeleteSession deletes a session and records the "delete" operation
func (s *InstrumentedSessionStorage) DeleteSession(ctx context.Context, id string) error {
	start := time.Now()
	err := s.next.DeleteSession(ctx, id)
	s.observe("delete", start, err)
	return err
}

// DeleteSessions deletes sessions and records the "delete_many" operation
func (s *InstrumentedSessionStorage) DeleteSessions(ctx context.Context, ids []string) error {
	start := time.Now()
	err := s.next.DeleteSessions(ctx, ids)
	s.observe("delete_many", start, err)
	return err
}

// FindSessionsByShop retrieves a shop's sessions and records the "find_by_shop" operation
func (s *InstrumentedSessionStorage) FindSessionsByShop(ctx context.Context, shop string) ([]*domain.Session, error) {
	start := time.Now()
	sessions, err := s.next.FindSessionsByShop(ctx, shop)
	s.observe("find_by_shop", start, err)
	return sessions, err
}
