package entity

import (
	"time"

	"shopify-session-layer/internal/domain"
)

// MongoSessionDoc represents an OAuth session in MongoDB.
// Empty optional fields are omitted so the document mirrors the NULL columns of the SQL table.
// ExpiresAt is a BSON datetime and keeps millisecond precision.
type MongoSessionDoc struct {
	ID          string     `bson:"_id"`
	Shop        string     `bson:"shop"`
	State       string     `bson:"state,omitempty"`
	IsOnline    bool       `bson:"isOnline"`
	Scope       string     `bson:"scope,omitempty"`
	ExpiresAt   *time.Time `bson:"expiresAt,omitempty"`
	AccessToken string     `bson:"accessToken,omitempty"`
	TenantID    string     `bson:"tenantId,omitempty"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoSessionDoc) ToDomain() *domain.Session {
	session := &domain.Session{
		ID:          d.ID,
		Shop:        d.Shop,
		State:       d.State,
		IsOnline:    d.IsOnline,
		Scope:       d.Scope,
		AccessToken: d.AccessToken,
		TenantID:    d.TenantID,
	}
	if d.ExpiresAt != nil {
		t := *d.ExpiresAt
		session.ExpiresAt = &t
	}
	return session
}

// MongoSessionDocFromDomain converts a domain entity to a MongoDB document.
// ExpiresAt is truncated to the millisecond a BSON datetime can hold.
func MongoSessionDocFromDomain(session *domain.Session) *MongoSessionDoc {
	doc := &MongoSessionDoc{
		ID:          session.ID,
		Shop:        session.Shop,
		State:       session.State,
		IsOnline:    session.IsOnline,
		Scope:       session.Scope,
		AccessToken: session.AccessToken,
		TenantID:    session.TenantID,
	}
	if session.ExpiresAt != nil {
		t := session.ExpiresAt.UTC().Truncate(time.Millisecond)
		doc.ExpiresAt = &t
	}
	return doc
}
