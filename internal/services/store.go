// Package services implements StreamLink's authentication and streaming
// logic: password and Google sign-in, session issuance, and the YouTube
// integration. Handlers call into this package; it calls the credential
// store, Redis, and Google.
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/ieraasyl/StreamLink/internal/models"
)

// CredentialStore persists user accounts. Implementations live in the
// database package (Firestore, PostgreSQL, memory).
//
// FindByEmail returns (nil, nil) when no user has the email. Create reports a
// taken email as models.ErrDuplicateEmail, even when a concurrent request won
// the race after the caller's own lookup.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, fields models.UserFields) error
}
