// Package config provides application configuration management with environment
// variable loading, validation, and sensible defaults. It supports .env files
// for local development and validates all required settings on startup so that
// a missing credential stops the process instead of surfacing as a failed
// sign-in later.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Failed to load configuration")
//	}
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SessionTTL is the fixed lifetime of a StreamLink session (7 days).
const SessionTTL = 7 * 24 * time.Hour

// Credential store backends selectable with STORE_BACKEND.
const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"
)

// ErrMissingEnv is returned (wrapped) for every required variable that is not set.
var ErrMissingEnv = errors.New("required environment variable is not set")

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Firestore FirestoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	OAuth     OAuthConfig
	YouTube   YouTubeConfig
	Session   SessionConfig
	Auth      AuthConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port        string
	Environment string
	AppURL      string // Public base URL, used to derive the OAuth redirect URI
}

// StoreConfig selects the credential store implementation.
type StoreConfig struct {
	Backend string // firestore, postgres, or memory
}

// FirestoreConfig holds Firestore settings. Credentials may be a file path
// or a base64-encoded service account JSON; empty means application default
// credentials (or the emulator when FIRESTORE_EMULATOR_HOST is set).
type FirestoreConfig struct {
	ProjectID   string
	Credentials string
	Collection  string
}

// DatabaseConfig holds PostgreSQL connection parameters and pool settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

// OAuthConfig holds Google OAuth 2.0 client credentials and endpoints.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	UserInfoURL  string
}

// YouTubeConfig holds YouTube Data API settings.
type YouTubeConfig struct {
	APIKey           string
	BroadcastPrivacy string        // public, unlisted, or private
	HistoryCacheTTL  time.Duration // How long a user's video history is cached
}

// SessionConfig holds the session cookie signing secret.
type SessionConfig struct {
	Secret []byte
	TTL    time.Duration
}

// AuthConfig holds password sign-in policy.
type AuthConfig struct {
	BcryptCost int
	// RevealGoogleOnly shows a "use Google sign-in" hint when a password login
	// hits a Google-only account. Off by default to avoid account enumeration.
	RevealGoogleOnly bool
}

// CORSConfig controls which origins can call the JSON API.
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig protects the credential endpoints from brute force.
type RateLimitConfig struct {
	RequestsPerMinute int
	WindowDuration    time.Duration
}

// LogConfig holds the zerolog level.
type LogConfig struct {
	Level string
}

// Load reads and validates configuration from environment variables.
// It loads a .env file if present (local development) and ignores its absence.
//
// Required environment variables:
//   - GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET: Google OAuth client
//   - GOOGLE_REDIRECT_URL, or APP_URL from which the callback URL is derived
//   - YOUTUBE_API_KEY: YouTube Data API key
//   - SESSION_SECRET: session cookie signing key (>= 32 bytes)
//   - FIRESTORE_PROJECT_ID (firestore backend) or POSTGRES_PASSWORD (postgres backend)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var missing []string
	required := func(key string) string {
		value := os.Getenv(key)
		if value == "" {
			missing = append(missing, key)
		}
		return value
	}

	appURL := strings.TrimRight(getEnv("APP_URL", ""), "/")
	redirectURL := getEnv("GOOGLE_REDIRECT_URL", "")
	if redirectURL == "" && appURL != "" {
		redirectURL = appURL + "/api/auth/callback/google"
	}
	if redirectURL == "" {
		missing = append(missing, "GOOGLE_REDIRECT_URL (or APP_URL)")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENV", "development"),
			AppURL:      appURL,
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", StoreFirestore),
		},
		Firestore: FirestoreConfig{
			ProjectID:   getEnv("FIRESTORE_PROJECT_ID", os.Getenv("GOOGLE_CLOUD_PROJECT")),
			Credentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			Collection:  getEnv("FIRESTORE_USERS_COLLECTION", "users"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			Database: getEnv("POSTGRES_DB", "streamlink"),
			User:     getEnv("POSTGRES_USER", "streamlink"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("POSTGRES_MAX_CONNS", 25),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 50),
		},
		OAuth: OAuthConfig{
			ClientID:     required("GOOGLE_CLIENT_ID"),
			ClientSecret: required("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  redirectURL,
			UserInfoURL:  getEnv("GOOGLE_USER_INFO", "https://www.googleapis.com/oauth2/v2/userinfo"),
		},
		YouTube: YouTubeConfig{
			APIKey:           required("YOUTUBE_API_KEY"),
			BroadcastPrivacy: getEnv("YOUTUBE_BROADCAST_PRIVACY", "unlisted"),
			HistoryCacheTTL:  getEnvAsDuration("CACHE_VIDEO_TTL", 5*time.Minute),
		},
		Session: SessionConfig{
			Secret: []byte(required("SESSION_SECRET")),
			TTL:    SessionTTL,
		},
		Auth: AuthConfig{
			BcryptCost:       getEnvAsInt("BCRYPT_COST", 12),
			RevealGoogleOnly: getEnvAsBool("AUTH_REVEAL_GOOGLE_ONLY", false),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:8080"}),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_REQUESTS", 20),
			WindowDuration:    getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	switch cfg.Store.Backend {
	case StoreFirestore:
		if cfg.Firestore.ProjectID == "" {
			missing = append(missing, "FIRESTORE_PROJECT_ID")
		}
	case StorePostgres:
		if cfg.Database.Password == "" {
			missing = append(missing, "POSTGRES_PASSWORD")
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are well formed.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server port must be a valid integer: %w", err)
	}

	switch c.Store.Backend {
	case StoreFirestore, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Store.Backend == StoreMemory && c.IsProduction() {
		return fmt.Errorf("memory store backend is not allowed in production")
	}

	if _, err := strconv.Atoi(c.Redis.Port); err != nil {
		return fmt.Errorf("redis port must be a valid integer: %w", err)
	}

	if _, err := url.ParseRequestURI(c.OAuth.RedirectURL); err != nil {
		return fmt.Errorf("invalid OAuth redirect URL: %w", err)
	}

	if _, err := url.ParseRequestURI(c.OAuth.UserInfoURL); err != nil {
		return fmt.Errorf("invalid OAuth user info URL: %w", err)
	}

	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("session secret must be at least 32 bytes")
	}

	switch c.YouTube.BroadcastPrivacy {
	case "public", "unlisted", "private":
	default:
		return fmt.Errorf("invalid YouTube broadcast privacy %q", c.YouTube.BroadcastPrivacy)
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 4 and 31")
	}

	return nil
}

// IsProduction reports whether secure cookie settings must be used.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// DSN returns the PostgreSQL connection string for the lib/pq driver.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Address returns the Redis server address in "host:port" format.
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt parses an integer variable, falling back to defaultValue when
// the variable is unset or malformed.
func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool parses a boolean variable ("true", "1", ...).
func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration parses a Go duration ("300ms", "5m", "2h45m").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice splits a comma-separated variable, dropping empty items.
//
//	// ALLOWED_ORIGINS=http://localhost:3000,https://example.com
//	origins := getEnvAsSlice("ALLOWED_ORIGINS", nil)
func getEnvAsSlice(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
