package domain

import (
	"errors"
	"time"
)

// Webhook topics handled by the session lifecycle handlers
const (
	TopicAppUninstalled  = "app/uninstalled"
	TopicAppScopesUpdate = "app/scopes_update"
)

// Shopify webhook headers
const (
	HeaderTopic      = "X-Shopify-Topic"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderHmac       = "X-Shopify-Hmac-Sha256"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
)

// ErrWebhookUnauthorized is wrapped by every webhook authentication failure
var ErrWebhookUnauthorized = errors.New("webhook unauthorized")

// WebhookEvent represents an authenticated Shopify webhook delivery.
// Session is the shop's current offline session, nil when it was already removed.
type WebhookEvent struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	Shop       string    `json:"shop"`
	Payload    []byte    `json:"payload"`
	Verified   bool      `json:"verified"`
	Session    *Session  `json:"-"`
	ReceivedAt time.Time `json:"received_at"`
}

// ScopesUpdatePayload is the body of an app/scopes_update webhook
type ScopesUpdatePayload struct {
	ID        int64    `json:"id"`
	Previous  []string `json:"previous"`
	Current   []string `json:"current"`
	UpdatedAt string   `json:"updated_at"`
}
