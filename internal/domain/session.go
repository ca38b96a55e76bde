package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// OfflineSessionPrefix prefixes the ID of the app-level session of a shop
const OfflineSessionPrefix = "offline_"

// ScopeSeparator joins granted scopes in the stored scope string
const ScopeSeparator = ","

var (
	// ErrInvalidSession is wrapped by every validation failure
	ErrInvalidSession = errors.New("invalid session")

	ErrMissingSessionID = fmt.Errorf("%w: id is required", ErrInvalidSession)
	ErrMissingShop      = fmt.Errorf("%w: shop is required", ErrInvalidSession)
)

// Session represents one OAuth grant for one installation of the app on one shop.
// Online sessions belong to a single staff user and expire; offline sessions are
// app-level and have no ExpiresAt. Storage backends keep ExpiresAt to at least
// millisecond precision; finer fractions may be dropped on the way back.
type Session struct {
	ID          string     `json:"id"`
	Shop        string     `json:"shop"`
	State       string     `json:"state,omitempty"`
	IsOnline    bool       `json:"is_online"`
	Scope       string     `json:"scope,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	AccessToken string     `json:"access_token,omitempty"`
	TenantID    string     `json:"tenant_id,omitempty"`
}

// Validate checks the identifiers required before any storage call
func (s *Session) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: session is nil", ErrInvalidSession)
	}
	if strings.TrimSpace(s.ID) == "" {
		return ErrMissingSessionID
	}
	if strings.TrimSpace(s.Shop) == "" {
		return ErrMissingShop
	}
	return nil
}

// HasAccessToken reports whether the token exchange has completed
func (s *Session) HasAccessToken() bool {
	return s.AccessToken != ""
}

// IsExpired reports whether an online session is past its expiry at now.
// Sessions without ExpiresAt never expire.
func (s *Session) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// IsUsable reports whether the session can authenticate Admin API calls
func (s *Session) IsUsable(now time.Time) bool {
	return s.HasAccessToken() && !s.IsExpired(now)
}

// Scopes returns the granted scopes as a list
func (s *Session) Scopes() []string {
	if s.Scope == "" {
		return []string{}
	}
	parts := strings.Split(s.Scope, ScopeSeparator)
	scopes := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			scopes = append(scopes, p)
		}
	}
	return scopes
}

// Clone returns a deep copy so callers never share ExpiresAt
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.ExpiresAt != nil {
		t := *s.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

// JoinScopes builds the stored scope string, e.g. "read_products,write_products"
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, ScopeSeparator)
}

// OfflineSessionID returns the ID of the offline session of a shop
func OfflineSessionID(shop string) string {
	return OfflineSessionPrefix + shop
}
