package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"shopify-session-layer/internal/application"
	"shopify-session-layer/internal/domain"

	"github.com/rs/zerolog"
)

// ScopesUpdateHandler handles app scopes update webhook events
type ScopesUpdateHandler struct {
	logger   zerolog.Logger
	sessions *application.SessionService
}

// NewScopesUpdateHandler creates a new scopes update webhook handler
func NewScopesUpdateHandler(logger zerolog.Logger, sessions *application.SessionService) *ScopesUpdateHandler {
	return &ScopesUpdateHandler{
		logger:   logger,
		sessions: sessions,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *ScopesUpdateHandler) CanHandle(topic string) bool {
	return topic == domain.TopicAppScopesUpdate
}

// Handle rewrites the session's scope to the granted scopes and stores the whole session
func (h *ScopesUpdateHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	if event.Session == nil {
		h.logger.Info().
			Str("topic", event.Topic).
			Str("shop", event.Shop).
			Msg("No session for scopes update, ignoring")
		return nil
	}

	var payload domain.ScopesUpdatePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse scopes update webhook payload: %w", err)
	}
	if payload.Current == nil {
		return fmt.Errorf("scopes update webhook payload has no current scopes")
	}

	session := event.Session.Clone()
	session.Scope = domain.JoinScopes(payload.Current)

	h.logger.Info().
		Str("shop", event.Shop).
		Str("id", session.ID).
		Strs("previous", payload.Previous).
		Strs("stored", event.Session.Scopes()).
		Str("scope", session.Scope).
		Msg("Processing scopes update webhook event")

	if err := h.sessions.StoreSession(ctx, session); err != nil {
		return fmt.Errorf("failed to store session with updated scopes: %w", err)
	}
	return nil
}
