package api

import (
	"encoding/json"
	"net/http"

	"shopify-session-layer/internal/application"
	"shopify-session-layer/internal/config"
	"shopify-session-layer/internal/domain"
	"shopify-session-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds everything the HTTP surface needs
type RouterDeps struct {
	Config        *config.Config
	Authenticator ports.WebhookAuthenticator
	Dispatcher    *application.WebhookDispatcher
	EventLog      ports.WebhookEventLog // optional
	Logger        zerolog.Logger
}

// NewRouter builds the chi router with middleware and all routes
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(Metrics())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.Config.Origins(),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/debug/config", DebugConfigHandler(deps.Config))

	// Webhooks
	webhooks := NewWebhookEndpoint(deps.Authenticator, deps.Dispatcher, deps.EventLog, deps.Logger)
	r.Post("/webhooks", webhooks.Handler(""))
	r.Post("/webhooks/app/uninstalled", webhooks.Handler(domain.TopicAppUninstalled))
	r.Post("/webhooks/app/scopes_update", webhooks.Handler(domain.TopicAppScopesUpdate))

	return r
}
