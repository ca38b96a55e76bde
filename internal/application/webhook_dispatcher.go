package application

import (
	"context"
	"errors"
	"fmt"

	"shopify-session-layer/internal/domain"

	"github.com/rs/zerolog"
)

// WebhookHandler processes the webhook topics it accepts
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes webhook events to registered handlers
type WebhookDispatcher struct {
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates a dispatcher with no handlers
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler. Registration happens at startup, before serving.
func (d *WebhookDispatcher) RegisterHandler(handler WebhookHandler) {
	d.handlers = append(d.handlers, handler)
}

// CanHandle reports whether any registered handler accepts the topic
func (d *WebhookDispatcher) CanHandle(topic string) bool {
	for _, h := range d.handlers {
		if h.CanHandle(topic) {
			return true
		}
	}
	return false
}

// Dispatch runs every handler that accepts the event's topic.
// All handlers run even if one fails; their errors are joined.
// Events nobody handles are logged and ignored.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	var errs []error
	handled := 0

	for _, h := range d.handlers {
		if !h.CanHandle(event.Topic) {
			continue
		}
		handled++
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", event.Topic, err))
		}
	}

	if handled == 0 {
		d.logger.Warn().
			Str("topic", event.Topic).
			Str("shop", event.Shop).
			Msg("No handler registered for webhook topic")
		return nil
	}

	return errors.Join(errs...)
}
