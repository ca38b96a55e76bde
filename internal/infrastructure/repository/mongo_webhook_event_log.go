package repository

import (
	"context"
	"fmt"
	"time"

	"shopify-session-layer/internal/domain"
	"shopify-session-layer/internal/infrastructure/repository/entity"
	"shopify-session-layer/internal/ports"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const webhookEventsCollection = "webhook_events"

// MongoWebhookEventLog implements WebhookEventLog using MongoDB.
// Shopify retries a delivery with the same webhook ID, so each ID maps to one
// document that counts its deliveries.
type MongoWebhookEventLog struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoWebhookEventLog creates a new MongoDB webhook event log
func NewMongoWebhookEventLog(db *mongo.Database) ports.WebhookEventLog {
	return &MongoWebhookEventLog{
		collection: db.Collection(webhookEventsCollection),
		now:        time.Now,
	}
}

// EnsureMongoWebhookIndexes creates the unique webhook ID index used to fold
// redeliveries, and the per-shop history index
func EnsureMongoWebhookIndexes(ctx context.Context, db *mongo.Database) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "webhookId", Value: 1}},
			Options: options.Index().SetName("idx_webhook_events_webhook_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "shop", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_webhook_events_shop_created"),
		},
	}
	if _, err := db.Collection(webhookEventsCollection).Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create webhook event indexes: %w", err)
	}
	return nil
}

// LogWebhook records a delivery. The first delivery of a webhook ID creates
// the document; later ones only bump deliveries and lastReceivedAt.
func (r *MongoWebhookEventLog) LogWebhook(ctx context.Context, event *domain.WebhookEvent) error {
	doc := entity.MongoWebhookDocFromDomain(event)
	if doc.WebhookID == "" {
		doc.WebhookID = uuid.NewString()
	}
	now := r.now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}

	filter := bson.M{"webhookId": doc.WebhookID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"topic":      doc.Topic,
			"shop":       doc.Shop,
			"payload":    doc.Payload,
			"verified":   doc.Verified,
			"hadSession": doc.HadSession,
			"createdAt":  doc.CreatedAt,
		},
		"$set": bson.M{"lastReceivedAt": now},
		"$inc": bson.M{"deliveries": 1},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to log webhook: %w", err)
	}

	return nil
}
