package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopify-session-layer/internal/application"
	"shopify-session-layer/internal/application/webhook_handlers"
	"shopify-session-layer/internal/config"
	apiinfra "shopify-session-layer/internal/infrastructure/api"
	"shopify-session-layer/internal/infrastructure/repository"
	shopifyinfra "shopify-session-layer/internal/infrastructure/shopify"
	"shopify-session-layer/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, warning, err := config.Load()
	if warning != "" {
		logger.Warn().Msg(warning)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn().Str("level", cfg.LogLevel).Msg("Unknown LOG_LEVEL, using info")
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize session storage
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("storage", cfg.SessionStorage).Msg("Failed to initialize session storage")
	}
	defer backend.close()

	storage := repository.NewTimeoutSessionStorage(
		repository.NewInstrumentedSessionStorage(backend.storage, cfg.SessionStorage),
		cfg.StorageTimeout,
	)

	// Initialize application services
	sessionService := application.NewSessionService(storage, logger, cfg.TenantID)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, sessionService))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewScopesUpdateHandler(logger, sessionService))

	authenticator := shopifyinfra.NewWebhookAuthenticator(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, sessionService, logger)

	router := apiinfra.NewRouter(apiinfra.RouterDeps{
		Config:        cfg,
		Authenticator: authenticator,
		Dispatcher:    webhookDispatcher,
		EventLog:      backend.eventLog,
		Logger:        logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("storage", cfg.SessionStorage).
			Str("environment", cfg.Environment).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// sessionBackend is the configured storage plus what must be released on exit
type sessionBackend struct {
	storage  ports.SessionStorage
	eventLog ports.WebhookEventLog
	close    func()
}

func openBackend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*sessionBackend, error) {
	switch cfg.SessionStorage {
	case config.StoragePostgres:
		db, err := config.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.MigrateOnStart {
			if err := repository.RunMigrations(db); err != nil {
				db.Close()
				return nil, err
			}
			logger.Info().Msg("Database migrations applied")
		}
		return &sessionBackend{
			storage: repository.NewPostgresSessionStorage(db),
			close:   closeSQL(db, logger),
		}, nil

	case config.StorageMongo:
		client, err := config.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := repository.EnsureMongoSessionIndexes(ctx, db); err != nil {
			logger.Warn().Err(err).Msg("Failed to ensure session indexes")
		}
		if err := repository.EnsureMongoWebhookIndexes(ctx, db); err != nil {
			logger.Warn().Err(err).Msg("Failed to ensure webhook event indexes")
		}
		return &sessionBackend{
			storage:  repository.NewMongoSessionStorage(db),
			eventLog: repository.NewMongoWebhookEventLog(db),
			close:    disconnectMongo(client, logger),
		}, nil

	case config.StorageRedis:
		client, err := config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("address", cfg.Redis.Address()).Msg("Redis connected successfully")
		return &sessionBackend{
			storage: repository.NewRedisSessionStorage(client, logger),
			close:   closeRedis(client, logger),
		}, nil

	default:
		logger.Warn().Msg("Using in-memory session storage; sessions are lost on restart")
		return &sessionBackend{
			storage: repository.NewMemorySessionStorage(),
			close:   func() {},
		}, nil
	}
}

func closeSQL(db *sql.DB, logger zerolog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close PostgreSQL connection")
		}
	}
}

func disconnectMongo(client *mongo.Client, logger zerolog.Logger) func() {
	return func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("Failed to disconnect MongoDB")
		}
	}
}

func closeRedis(client *redis.Client, logger zerolog.Logger) func() {
	return func() {
		if err := client.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close Redis connection")
		}
	}
}
