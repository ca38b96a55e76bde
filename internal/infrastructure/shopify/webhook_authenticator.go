package shopify

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shopify-session-layer/internal/domain"
	"shopify-session-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxWebhookBodyBytes caps the payload read before verification
const maxWebhookBodyBytes = 1 << 20

type webhookAuthenticator struct {
	app      goshopify.App
	sessions ports.SessionStorage
	logger   zerolog.Logger
	now      func() time.Time
}

// NewWebhookAuthenticator creates an authenticator that verifies the HMAC
// signature with the app secret and resolves the shop's offline session
func NewWebhookAuthenticator(apiKey, apiSecret string, sessions ports.SessionStorage, logger zerolog.Logger) ports.WebhookAuthenticator {
	return &webhookAuthenticator{
		app: goshopify.App{
			ApiKey:    apiKey,
			ApiSecret: apiSecret,
		},
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// Authenticate verifies the request and builds the webhook event.
// Verification failures wrap domain.ErrWebhookUnauthorized; body read and
// session lookup failures do not, so the caller can answer with a retryable status.
func (a *webhookAuthenticator) Authenticate(r *http.Request) (*domain.WebhookEvent, error) {
	if a.app.ApiSecret == "" {
		return nil, fmt.Errorf("%w: app secret not configured", domain.ErrWebhookUnauthorized)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook body: %w", err)
	}
	if len(body) > maxWebhookBodyBytes {
		return nil, fmt.Errorf("%w: body too large", domain.ErrWebhookUnauthorized)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if r.Header.Get(domain.HeaderHmac) == "" || !a.app.VerifyWebhookRequest(r) {
		return nil, fmt.Errorf("%w: invalid HMAC signature", domain.ErrWebhookUnauthorized)
	}

	topic := strings.TrimSpace(r.Header.Get(domain.HeaderTopic))
	shop := strings.TrimSpace(r.Header.Get(domain.HeaderShopDomain))
	if topic == "" || shop == "" {
		return nil, fmt.Errorf("%w: missing topic or shop header", domain.ErrWebhookUnauthorized)
	}

	session, err := a.sessions.LoadSession(r.Context(), domain.OfflineSessionID(shop))
	if err != nil {
		return nil, fmt.Errorf("failed to load session for shop %s: %w", shop, err)
	}

	a.logger.Debug().
		Str("topic", topic).
		Str("shop", shop).
		Bool("hasSession", session != nil).
		Msg("Webhook authenticated")

	webhookID := r.Header.Get(domain.HeaderWebhookID)
	if webhookID == "" {
		webhookID = uuid.NewString()
	}

	return &domain.WebhookEvent{
		ID:         webhookID,
		Topic:      topic,
		Shop:       shop,
		Payload:    body,
		Verified:   true,
		Session:    session,
		ReceivedAt: a.now(),
	}, nil
}
