// Command server runs StreamLink: email/password and Google sign-in, and a
// dashboard that starts YouTube live streams.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ieraasyl/StreamLink/internal/database"
	"github.com/ieraasyl/StreamLink/internal/handlers"
	"github.com/ieraasyl/StreamLink/internal/middleware"
	"github.com/ieraasyl/StreamLink/internal/services"
	"github.com/ieraasyl/StreamLink/pkg/cache"
	"github.com/ieraasyl/StreamLink/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// credentialStore is a user store the readiness check can ping.
type credentialStore interface {
	services.CredentialStore
	handlers.Pinger
}

func main() {
	cfg, err := config.Load()
	setupLogger(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("env", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("store", cfg.Store.Backend).
		Msg("Starting StreamLink")

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store.Backend).Msg("Failed to open credential store")
	}
	defer closeStore()

	redisDB, err := database.NewRedisDB(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisDB.Close()

	cacheInstance := cache.NewCache(redisDB.Client())

	passwordService, err := services.NewPasswordService(store, cfg.Auth.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create password service")
	}
	oauthService := services.NewOAuthService(&cfg.OAuth, store)
	sessionService := services.NewSessionService(cfg.Session.Secret, cfg.Session.TTL, redisDB)
	youtubeService := services.NewYouTubeService(services.YouTubeConfig{
		APIKey:     cfg.YouTube.APIKey,
		Privacy:    cfg.YouTube.BroadcastPrivacy,
		HistoryTTL: cfg.YouTube.HistoryCacheTTL,
	}, oauthService, cacheInstance)


	router := handlers.NewRouter(handlers.RouterConfig{
		Auth: handlers.NewAuthHandler(passwordService, oauthService, sessionService, handlers.AuthOptions{
			IsProduction:     cfg.IsProduction(),
			RevealGoogleOnly: cfg.Auth.RevealGoogleOnly,
		}),
		Dashboard:      handlers.NewDashboardHandler(sessionService, youtubeService, cfg.IsProduction()),
		Health:         handlers.NewHealthHandler(cfg.Store.Backend, store, redisDB),
		Sessions:       sessionService,
		RateLimiter:    middleware.NewRateLimiter(redisDB, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.WindowDuration),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		IsProduction:   cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped gracefully")
}

// setupLogger writes JSON in production and readable console output
// elsewhere. cfg may be nil when configuration failed to load.
func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	level := zerolog.InfoLevel

	if cfg != nil {
		if cfg.IsProduction() {
			out = os.Stderr
		}
		if parsed, err := zerolog.ParseLevel(cfg.Log.Level); err == nil && parsed != zerolog.NoLevel {
			level = parsed
		}
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(out).With().Timestamp().Str("service", "streamlink").Logger()
}

// openStore opens the configured credential store and returns its closer.
func openStore(ctx context.Context, cfg *config.Config) (credentialStore, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreFirestore:
		store, err := database.NewFirestoreStore(ctx, &cfg.Firestore)
		if err != nil {
			return nil, nil, err
		}
		return store, closer("firestore", store.Close), nil

	case config.StorePostgres:
		store, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := store.RunMigrations(ctx, database.Schema); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, closer("postgres", store.Close), nil

	case config.StoreMemory:
		log.Warn().Msg("Using in-memory credential store; accounts are lost on restart")
		return database.NewMemoryStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func closer(name string, closeFn func() error) func() {
	return func() {
		if err := closeFn(); err != nil {
			log.Error().Err(err).Str("store", name).Msg("Failed to close credential store")
		}
	}
}
