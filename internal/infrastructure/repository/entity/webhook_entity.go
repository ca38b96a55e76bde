package entity

import (
	"time"

	"shopify-session-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoWebhookDoc represents one webhook in MongoDB, keyed by its Shopify webhook ID.
// CreatedAt is the first delivery; Deliveries counts redeliveries too.
type MongoWebhookDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	WebhookID      string             `bson:"webhookId"`
	Topic          string             `bson:"topic"`
	Shop           string             `bson:"shop"`
	Payload        string             `bson:"payload"`
	Verified       bool               `bson:"verified"`
	HadSession     bool               `bson:"hadSession"`
	Deliveries     int                `bson:"deliveries"`
	CreatedAt      time.Time          `bson:"createdAt"`
	LastReceivedAt time.Time          `bson:"lastReceivedAt"`
}

// MongoWebhookDocFromDomain converts a domain webhook event to a MongoDB document
func MongoWebhookDocFromDomain(event *domain.WebhookEvent) *MongoWebhookDoc {
	return &MongoWebhookDoc{
		WebhookID:  event.ID,
		Topic:      event.Topic,
		Shop:       event.Shop,
		Payload:    string(event.Payload),
		Verified:   event.Verified,
		HadSession: event.Session != nil,
		CreatedAt:  event.ReceivedAt,
	}
}
