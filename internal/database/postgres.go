// Package database provides the credential stores and the Redis session vault.
//
// Three credential stores share one contract (FindByEmail, Create, Update,
// Ping): Firestore in production, PostgreSQL as a self-hosted alternative,
// and an in-memory store for development and tests. Each one enforces email
// uniqueness itself and reports a taken address as models.ErrDuplicateEmail.
//
// Redis holds the server-side half of every session (the OAuth token
// bundle), the rate limit counters, and the cache.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ieraasyl/StreamLink/internal/models"
	"github.com/ieraasyl/StreamLink/pkg/config"
	"github.com/ieraasyl/StreamLink/pkg/utils"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// Schema creates the users table. It is idempotent and applied on startup.
const Schema = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	email         VARCHAR(255) NOT NULL UNIQUE,
	password_hash TEXT,
	google_id     VARCHAR(255),
	name          VARCHAR(255),
	picture       TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT users_auth_method CHECK (password_hash IS NOT NULL OR google_id IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_users_google_id ON users(google_id);
`

const userColumns = `id, email, COALESCE(password_hash, ''), COALESCE(google_id, ''),
	COALESCE(name, ''), COALESCE(picture, ''), created_at, updated_at`

// PostgresDB is a credential store backed by PostgreSQL (lib/pq).
type PostgresDB struct {
	db *sql.DB
}

// NewPostgresDB opens a connection pool and verifies it with a ping,
// retrying with exponential backoff while the database comes up.
//
// Example:
//
//	db, err := database.NewPostgresDB(&cfg.Database)
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Database connection failed")
//	}
//	defer db.Close()
func NewPostgresDB(cfg *config.DatabaseConfig) (*PostgresDB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns / 2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = utils.Retry(ctx, utils.ConnectRetryConfig(), func() error {
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		defer pingCancel()

		if err := db.PingContext(pingCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to ping database, retrying...")
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info().Msg("Successfully connected to PostgreSQL")

	return &PostgresDB{db: db}, nil
}

// NewPostgresDBFromConn wraps an existing connection pool.
func NewPostgresDBFromConn(db *sql.DB) *PostgresDB {
	return &PostgresDB{db: db}
}

// Close closes the connection pool.
func (p *PostgresDB) Close() error {
	return p.db.Close()
}

// Ping verifies the database is reachable.
func (p *PostgresDB) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return models.StoreUnavailable("postgres ping", err)
	}
	return nil
}

// RunMigrations executes an idempotent SQL script such as Schema.
func (p *PostgresDB) RunMigrations(ctx context.Context, migrationSQL string) error {
	if _, err := p.db.ExecContext(ctx, migrationSQL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("Database migrations completed successfully")
	return nil
}

// FindByEmail returns the user with the given email, or (nil, nil) when
// no such user exists. The email is normalized before the lookup.
func (p *PostgresDB) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(p.db.QueryRowContext(ctx, query, models.NormalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, models.StoreUnavailable("find user by email", err)
	}

	return user, nil
}

// Create inserts a new user. The UNIQUE constraint on email is the final
// guard against concurrent registrations: a violation is reported as
// models.ErrDuplicateEmail.
func (p *PostgresDB) Create(ctx context.Context, user *models.User) (*models.User, error) {
	created := *user
	created.Email = models.NormalizeEmail(created.Email)
	if err := created.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (email, password_hash, google_id, name, picture)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := p.db.QueryRowContext(ctx, query,
		created.Email,
		nullString(created.PasswordHash),
		nullString(created.GoogleID),
		nullString(created.Name),
		nullString(created.Picture),
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, createError(err)
	}

	log.Info().
		Str("user_id", created.ID.String()).
		Str("email", created.Email).
		Msg("User created")

	return &created, nil
}

// createError maps an INSERT failure: a unique violation means the email is
// taken, anything else is an infrastructure failure.
func createError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return models.ErrDuplicateEmail
	}
	return models.StoreUnavailable("create user", err)
}

// Update applies the non-nil fields of fields to the user.
func (p *PostgresDB) Update(ctx context.Context, id uuid.UUID, fields models.UserFields) error {
	query := `
		UPDATE users SET
			google_id = COALESCE($2, google_id),
			name = COALESCE($3, name),
			picture = COALESCE($4, picture),
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := p.db.ExecContext(ctx, query, id,
		nullStringPtr(fields.GoogleID),
		nullStringPtr(fields.Name),
		nullStringPtr(fields.Picture),
	)
	if err != nil {
		return models.StoreUnavailable("update user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return models.StoreUnavailable("update user", err)
	}
	if rows == 0 {
		return models.ErrUserNotFound
	}

	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.GoogleID,
		&user.Name,
		&user.Picture,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
