package application

import (
	"context"
	"fmt"
	"strings"

	"shopify-session-layer/internal/domain"
	"shopify-session-layer/internal/ports"

	"github.com/rs/zerolog"
)

// SessionService is the session store used by the rest of the application.
// It rejects malformed input before any storage call and logs every mutation.
// It depends on ports (interfaces) not concrete implementations
type SessionService struct {
	storage  ports.SessionStorage
	logger   zerolog.Logger
	tenantID string
}

// NewSessionService creates a new session service.
// A non-empty tenantID is stamped on stored sessions that carry none.
func NewSessionService(storage ports.SessionStorage, logger zerolog.Logger, tenantID string) *SessionService {
	return &SessionService{
		storage:  storage,
		logger:   logger,
		tenantID: tenantID,
	}
}

// StoreSession inserts or fully replaces the session with the same ID
func (s *SessionService) StoreSession(ctx context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		s.logger.Warn().Err(err).Msg("Rejected invalid session")
		return err
	}

	if session.TenantID == "" && s.tenantID != "" {
		session = session.Clone()
		session.TenantID = s.tenantID
	}

	s.logger.Debug().
		Str("id", session.ID).
		Str("shop", session.Shop).
		Bool("hasToken", session.HasAccessToken()).
		Bool("isOnline", session.IsOnline).
		Str("scope", session.Scope).
		Msg("Storing session")

	if err := s.storage.StoreSession(ctx, session); err != nil {
		s.logger.Error().Err(err).Str("id", session.ID).Str("shop", session.Shop).Msg("Failed to store session")
		return err
	}

	s.logger.Info().
		Str("id", session.ID).
		Str("shop", session.Shop).
		Bool("hasToken", session.HasAccessToken()).
		Msg("Session stored")
	return nil
}

// LoadSession returns the session with the given ID, or nil when none exists
func (s *SessionService) LoadSession(ctx context.Context, id string) (*domain.Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrMissingSessionID
	}

	session, err := s.storage.LoadSession(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to load session")
		return nil, err
	}
	if session == nil {
		s.logger.Debug().Str("id", id).Msg("Session not found")
		return nil, nil
	}

	s.logger.Debug().
		Str("id", session.ID).
		Str("shop", session.Shop).
		Bool("hasToken", session.HasAccessToken()).
		Msg("Session loaded")
	return session, nil
}

// DeleteSession removes one session; removing a missing session succeeds
func (s *SessionService) DeleteSession(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrMissingSessionID
	}

	if err := s.storage.DeleteSession(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to delete session")
		return err
	}

	s.logger.Info().Str("id", id).Msg("Session deleted")
	return nil
}

// DeleteSessions removes every listed session in a single storage operation
func (s *SessionService) DeleteSessions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return domain.ErrMissingSessionID
		}
	}

	if err := s.storage.DeleteSessions(ctx, ids); err != nil {
		s.logger.Error().Err(err).Strs("ids", ids).Msg("Failed to delete sessions")
		return err
	}

	s.logger.Info().Strs("ids", ids).Msg("Sessions deleted")
	return nil
}

// FindSessionsByShop returns every session of a shop, possibly none
func (s *SessionService) FindSessionsByShop(ctx context.Context, shop string) ([]*domain.Session, error) {
	if strings.TrimSpace(shop) == "" {
		return nil, domain.ErrMissingShop
	}

	sessions, err := s.storage.FindSessionsByShop(ctx, shop)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to find sessions")
		return nil, err
	}

	s.logger.Debug().Str("shop", shop).Int("count", len(sessions)).Msg("Sessions found")
	return sessions, nil
}

// FindOfflineSession returns the shop's offline session, or nil when it has none
func (s *SessionService) FindOfflineSession(ctx context.Context, shop string) (*domain.Session, error) {
	sessions, err := s.FindSessionsByShop(ctx, shop)
	if err != nil {
		return nil, err
	}

	for _, session := range sessions {
		if !session.IsOnline {
			return session, nil
		}
	}
	return nil, nil
}

// DeleteShopSessions removes every session of a shop and returns how many were removed
func (s *SessionService) DeleteShopSessions(ctx context.Context, shop string) (int, error) {
	sessions, err := s.FindSessionsByShop(ctx, shop)
	if err != nil {
		return 0, err
	}
	if len(sessions) == 0 {
		return 0, nil
	}

	ids := make([]string, len(sessions))
	for i, session := range sessions {
		ids[i] = session.ID
	}

	if err := s.DeleteSessions(ctx, ids); err != nil {
		return 0, fmt.Errorf("failed to delete sessions of shop %s: %w", shop, err)
	}
	return len(ids), nil
}
