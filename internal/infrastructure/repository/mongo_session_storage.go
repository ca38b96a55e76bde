package repository

import (
	"context"
	"fmt"

	"shopify-session-layer/internal/domain"
	"shopify-session-layer/internal/infrastructure/repository/entity"
	"shopify-session-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionsCollection = "shopify_sessions"

// MongoSessionStorage implements SessionStorage using MongoDB
type MongoSessionStorage struct {
	collection *mongo.Collection
}

// NewMongoSessionStorage creates a new MongoDB session storage
func NewMongoSessionStorage(db *mongo.Database) ports.SessionStorage {
	return &MongoSessionStorage{
		collection: db.Collection(sessionsCollection),
	}
}

// EnsureMongoSessionIndexes creates the shop index used by FindSessionsByShop
func EnsureMongoSessionIndexes(ctx context.Context, db *mongo.Database) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "shop", Value: 1}},
		Options: options.Index().SetName("idx_shopify_sessions_shop"),
	}
	if _, err := db.Collection(sessionsCollection).Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}
	return nil
}

// StoreSession replaces the whole document, inserting it when absent
func (r *MongoSessionStorage) StoreSession(ctx context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	doc := entity.MongoSessionDocFromDomain(session)
	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"_id": session.ID}

	_, err := r.collection.ReplaceOne(ctx, filter, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// LoadSession retrieves a session by ID
func (r *MongoSessionStorage) LoadSession(ctx context.Context, id string) (*domain.Session, error) {
	var doc entity.MongoSessionDoc
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return doc.ToDomain(), nil
}

// DeleteSession deletes a session by ID
func (r *MongoSessionStorage) DeleteSession(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteSessions deletes every listed session in one request
func (r *MongoSessionStorage) DeleteSessions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	filter := bson.M{"_id": bson.M{"$in": ids}}
	if _, err := r.collection.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

// FindSessionsByShop retrieves all sessions of a shop
func (r *MongoSessionStorage) FindSessionsByShop(ctx context.Context, shop string) ([]*domain.Session, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"shop": shop})
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := []*domain.Session{}
	for cursor.Next(ctx) {
		var doc entity.MongoSessionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode session: %w", err)
		}
		sessions = append(sessions, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return sessions, nil
}
