package api

import (
	"encoding/json"
	"net/http"

	"shopify-session-layer/internal/config"
)

// DebugConfig reports which settings are present. Secrets never appear in
// full, only as short prefixes.
type DebugConfig struct {
	HasAPIKey         bool   `json:"hasApiKey"`
	HasAPISecret      bool   `json:"hasApiSecret"`
	HasAppURL         bool   `json:"hasAppUrl"`
	HasDatabaseURL    bool   `json:"hasDatabaseUrl"`
	HasMongoURI       bool   `json:"hasMongoUri"`
	HasRedisPassword  bool   `json:"hasRedisPassword"`
	AppURL            string `json:"appUrl"`
	Environment       string `json:"environment"`
	SessionStorage    string `json:"sessionStorage"`
	APIKeyPrefix      string `json:"apiKeyPrefix,omitempty"`
	DatabaseURLPrefix string `json:"databaseUrlPrefix,omitempty"`
}

// NewDebugConfig summarizes cfg
func NewDebugConfig(cfg *config.Config) DebugConfig {
	return DebugConfig{
		HasAPIKey:         cfg.ShopifyAPIKey != "",
		HasAPISecret:      cfg.ShopifyAPISecret != "",
		HasAppURL:         cfg.AppURL != "",
		HasDatabaseURL:    cfg.DatabaseURL != "",
		HasMongoURI:       cfg.MongoURI != "",
		HasRedisPassword:  cfg.Redis.Password != "",
		AppURL:            cfg.AppURL,
		Environment:       cfg.Environment,
		SessionStorage:    cfg.SessionStorage,
		APIKeyPrefix:      prefix(cfg.ShopifyAPIKey, 8),
		DatabaseURLPrefix: prefix(cfg.DatabaseURL, 11),
	}
}

// DebugConfigHandler serves the configuration summary as JSON
func DebugConfigHandler(cfg *config.Config) http.HandlerFunc {
	summary := NewDebugConfig(cfg)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
