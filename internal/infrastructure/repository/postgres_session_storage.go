package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shopify-session-layer/internal/domain"
	"shopify-session-layer/internal/ports"

	"github.com/lib/pq"
)

const (
	upsertSessionQuery = `
		INSERT INTO shopify_sessions (id, shop, state, is_online, scope, expires_at, access_token, tenant_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			shop = EXCLUDED.shop,
			state = EXCLUDED.state,
			is_online = EXCLUDED.is_online,
			scope = EXCLUDED.scope,
			expires_at = EXCLUDED.expires_at,
			access_token = EXCLUDED.access_token,
			tenant_id = EXCLUDED.tenant_id
	`

	selectSessionByIDQuery = `
		SELECT id, shop, state, is_online, scope, expires_at, access_token, tenant_id
		FROM shopify_sessions
		WHERE id = $1
	`

	selectSessionsByShopQuery = `
		SELECT id, shop, state, is_online, scope, expires_at, access_token, tenant_id
		FROM shopify_sessions
		WHERE shop = $1
	`

	deleteSessionQuery  = `DELETE FROM shopify_sessions WHERE id = $1`
	deleteSessionsQuery = `DELETE FROM shopify_sessions WHERE id = ANY($1)`
)

// PostgresSessionStorage implements SessionStorage on the shopify_sessions table
type PostgresSessionStorage struct {
	db *sql.DB
}

// NewPostgresSessionStorage creates a new PostgreSQL session storage
func NewPostgresSessionStorage(db *sql.DB) ports.SessionStorage {
	return &PostgresSessionStorage{db: db}
}

// StoreSession inserts the session or overwrites every column of the existing row
func (r *PostgresSessionStorage) StoreSession(ctx context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, upsertSessionQuery,
		session.ID,
		session.Shop,
		nullString(session.State),
		session.IsOnline,
		nullString(session.Scope),
		nullTime(session.ExpiresAt),
		nullString(session.AccessToken),
		nullString(session.TenantID),
	)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// LoadSession retrieves a session by ID
func (r *PostgresSessionStorage) LoadSession(ctx context.Context, id string) (*domain.Session, error) {
	session, err := scanSession(r.db.QueryRowContext(ctx, selectSessionByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

// DeleteSession deletes a session by ID
func (r *PostgresSessionStorage) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, deleteSessionQuery, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteSessions deletes every listed session in one statement
func (r *PostgresSessionStorage) DeleteSessions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, deleteSessionsQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

// FindSessionsByShop retrieves all sessions of a shop
func (r *PostgresSessionStorage) FindSessionsByShop(ctx context.Context, shop string) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, selectSessionsByShopQuery, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*domain.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		session     domain.Session
		state       sql.NullString
		scope       sql.NullString
		expiresAt   sql.NullTime
		accessToken sql.NullString
		tenantID    sql.NullString
	)

	err := row.Scan(
		&session.ID,
		&session.Shop,
		&state,
		&session.IsOnline,
		&scope,
		&expiresAt,
		&accessToken,
		&tenantID,
	)
	if err != nil {
		return nil, err
	}

	session.State = state.String
	session.Scope = scope.String
	session.AccessToken = accessToken.String
	session.TenantID = tenantID.String
	if expiresAt.Valid {
		t := expiresAt.Time
		session.ExpiresAt = &t
	}
	return &session, nil
}

// Empty strings are stored as NULL: access_token is nullable while the OAuth
// handshake is in progress.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
