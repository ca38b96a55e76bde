package ports

import (
	"context"
	"net/http"

	"shopify-session-layer/internal/domain"
)

// WebhookAuthenticator verifies an inbound webhook request and resolves the
// shop, topic, payload and current session it refers to
type WebhookAuthenticator interface {
	Authenticate(r *http.Request) (*domain.WebhookEvent, error)
}

// WebhookEventLog defines the interface for webhook event persistence
type WebhookEventLog interface {
	LogWebhook(ctx context.Context, event *domain.WebhookEvent) error
}
