package api

import (
	"errors"
	"net/http"

	"shopify-session-layer/internal/application"
	"shopify-session-layer/internal/domain"
	"shopify-session-layer/internal/infrastructure/metrics"
	"shopify-session-layer/internal/ports"

	"github.com/rs/zerolog"
)

// WebhookEndpoint serves Shopify webhook deliveries
type WebhookEndpoint struct {
	authenticator ports.WebhookAuthenticator
	dispatcher    *application.WebhookDispatcher
	eventLog      ports.WebhookEventLog
	logger        zerolog.Logger
}

// NewWebhookEndpoint creates a webhook endpoint. eventLog may be nil.
func NewWebhookEndpoint(
	authenticator ports.WebhookAuthenticator,
	dispatcher *application.WebhookDispatcher,
	eventLog ports.WebhookEventLog,
	logger zerolog.Logger,
) *WebhookEndpoint {
	return &WebhookEndpoint{
		authenticator: authenticator,
		dispatcher:    dispatcher,
		eventLog:      eventLog,
		logger:        logger,
	}
}

// Handler returns the handler for one route. A non-empty topic rejects
// deliveries whose X-Shopify-Topic header names a different topic.
//
// Once authenticated, a delivery is always acknowledged with 200 and an empty
// body, even when a lifecycle handler failed: the failure is logged instead.
// Topics no handler accepts are acknowledged without being written to the event log.
func (e *WebhookEndpoint) Handler(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		event, err := e.authenticator.Authenticate(r)
		if err != nil {
			if errors.Is(err, domain.ErrWebhookUnauthorized) {
				e.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Webhook authentication failed")
				metrics.WebhookEventsTotal.WithLabelValues(topicLabel(topic), metrics.OutcomeUnauthorized).Inc()
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			e.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to authenticate webhook")
			metrics.WebhookEventsTotal.WithLabelValues(topicLabel(topic), metrics.OutcomeFailed).Inc()
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if topic != "" && event.Topic != topic {
			e.logger.Warn().
				Str("expected", topic).
				Str("topic", event.Topic).
				Str("shop", event.Shop).
				Msg("Webhook topic does not match route")
			http.Error(w, "Topic does not match route", http.StatusBadRequest)
			return
		}

		if !e.dispatcher.CanHandle(event.Topic) {
			e.logger.Warn().
				Str("topic", event.Topic).
				Str("shop", event.Shop).
				Msg("Ignoring webhook with no registered handler")
			metrics.WebhookEventsTotal.WithLabelValues(topicLabel(topic), metrics.OutcomeIgnored).Inc()
			w.WriteHeader(http.StatusOK)
			return
		}

		e.logger.Info().
			Str("topic", event.Topic).
			Str("shop", event.Shop).
			Bool("hasSession", event.Session != nil).
			Msg("Received webhook")

		// Log webhook event first
		if e.eventLog != nil {
			if err := e.eventLog.LogWebhook(ctx, event); err != nil {
				e.logger.Error().Err(err).Str("topic", event.Topic).Msg("Failed to log webhook event")
				// Continue processing even if logging fails
			}
		}

		outcome := metrics.OutcomeHandled
		if err := e.dispatcher.Dispatch(ctx, event); err != nil {
			outcome = metrics.OutcomeFailed
			e.logger.Error().
				Err(err).
				Str("topic", event.Topic).
				Str("shop", event.Shop).
				Msg("Failed to process webhook event")
		}
		metrics.WebhookEventsTotal.WithLabelValues(event.Topic, outcome).Inc()

		w.WriteHeader(http.StatusOK)
	}
}

// topicLabel keeps metric cardinality bounded for unauthenticated requests
func topicLabel(routeTopic string) string {
	if routeTopic != "" {
		return routeTopic
	}
	return "unknown"
}
