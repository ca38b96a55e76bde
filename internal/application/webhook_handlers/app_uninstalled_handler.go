package webhook_handlers

import (
	"context"
	"fmt"

	"shopify-session-layer/internal/application"
	"shopify-session-layer/internal/domain"

	"github.com/rs/zerolog"
)

// AppUninstalledHandler handles app uninstalled webhook events
type AppUninstalledHandler struct {
	logger   zerolog.Logger
	sessions *application.SessionService
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(logger zerolog.Logger, sessions *application.SessionService) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		logger:   logger,
		sessions: sessions,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == domain.TopicAppUninstalled
}

// Handle deletes every session of the uninstalling shop.
// Webhooks can fire after the sessions are already gone, so a missing session is a no-op.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Bool("hasSession", event.Session != nil).
		Msg("Processing app uninstalled webhook event")

	if event.Session == nil {
		return nil
	}

	deleted, err := h.sessions.DeleteShopSessions(ctx, event.Shop)
	if err != nil {
		return fmt.Errorf("failed to delete sessions on uninstall: %w", err)
	}

	h.logger.Info().
		Str("shop", event.Shop).
		Int("deleted", deleted).
		Msg("App uninstalled - sessions deleted")
	return nil
}
