package ports

import (
	"context"

	"shopify-session-layer/internal/domain"
)

// SessionStorage defines the interface for OAuth session persistence.
// A missing record is never an error: LoadSession returns nil, nil and
// FindSessionsByShop returns an empty slice.
type SessionStorage interface {
	// StoreSession inserts or replaces the whole record keyed on session.ID
	StoreSession(ctx context.Context, session *domain.Session) error

	// LoadSession retrieves a session by ID
	LoadSession(ctx context.Context, id string) (*domain.Session, error)

	// DeleteSession deletes a session by ID, succeeding when it does not exist
	DeleteSession(ctx context.Context, id string) error

	// DeleteSessions deletes a set of sessions in a single batch
	DeleteSessions(ctx context.Context, ids []string) error

	// FindSessionsByShop retrieves every session of a shop in no particular order
	FindSessionsByShop(ctx context.Context, shop string) ([]*domain.Session, error)
}
