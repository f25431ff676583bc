// Package models defines the core domain models for StreamLink.
// These models represent the data structures used throughout the system
// for users, sessions, OAuth exchange results, and YouTube streams.
//
// All models include JSON struct tags for serialization. Sensitive fields
// (password hashes, OAuth tokens) are marked with `json:"-"` to prevent
// accidental exposure in API responses.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// User represents a StreamLink account. A user signs in with a password,
// with Google, or both; at least one authentication method is always present.
//
// The Email field always holds the normalized address (see NormalizeEmail),
// which makes lookups case-insensitive and keeps the email unique per account.
//
// JSON example:
//
//	{
//	  "id": "550e8400-e29b-41d4-a716-446655440000",
//	  "email": "user@example.com",
//	  "google_id": "1234567890",
//	  "name": "John Doe",
//	  "picture": "https://lh3.googleusercontent.com/...",
//	  "created_at": "2024-01-15T10:30:00Z",
//	  "updated_at": "2024-01-20T14:45:00Z"
//	}
type User struct {
	ID           uuid.UUID `json:"id"`                  // Immutable user identifier
	Email        string    `json:"email"`               // Normalized email (unique)
	PasswordHash string    `json:"-"`                   // bcrypt hash, empty for Google-only accounts
	GoogleID     string    `json:"google_id,omitempty"` // Google account ID, empty for password-only accounts
	Name         string    `json:"name,omitempty"`      // Display name, refreshed on every Google login
	Picture      string    `json:"picture,omitempty"`   // Profile picture URL, refreshed on every Google login
	CreatedAt    time.Time `json:"created_at"`          // Account creation timestamp
	UpdatedAt    time.Time `json:"updated_at"`          // Last profile update timestamp
}

// HasPassword reports whether the user can sign in with email and password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// HasGoogle reports whether the user is linked to a Google account.
func (u *User) HasGoogle() bool {
	return u.GoogleID != ""
}

// Validate checks the user invariants enforced by every credential store.
func (u *User) Validate() error {
	if u.Email == "" {
		return ErrInvalidEmail
	}
	if !u.HasPassword() && !u.HasGoogle() {
		return ErrNoAuthMethod
	}
	return nil
}

// UserFields is a partial update applied by CredentialStore.Update.
// Nil fields are left untouched.
type UserFields struct {
	GoogleID *string
	Name     *string
	Picture  *string
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
// StreamLink treats email addresses as case-insensitive so that two accounts
// can never differ only by letter case.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TokenBundle is the OAuth credential set returned by Google. The refresh
// token is required for later YouTube calls; losing it forces the user
// through the consent screen again.
type TokenBundle struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// NewTokenBundle copies the fields StreamLink keeps from an oauth2 token.
func NewTokenBundle(token *oauth2.Token) TokenBundle {
	return TokenBundle{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}
}

// OAuth2Token converts the bundle back into an oauth2 token.
func (b TokenBundle) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  b.AccessToken,
		RefreshToken: b.RefreshToken,
		TokenType:    b.TokenType,
		Expiry:       b.Expiry,
	}
}

// GoogleProfile is the subset of the Google userinfo response StreamLink uses.
type GoogleProfile struct {
	ExternalID string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Picture    string `json:"picture"`
}

// OAuthResult is produced once per OAuth callback and consumed immediately
// to upsert the user and issue a session. It is never cached.
type OAuthResult struct {
	Tokens  TokenBundle
	Profile GoogleProfile
}

// Session is the authenticated state carried by the client in the session
// cookie. Tokens are present only when the session originated from a Google
// sign-in.
type Session struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Email     string       `json:"email"`
	Picture   string       `json:"picture,omitempty"`
	Tokens    *TokenBundle `json:"-"`
	Device    string       `json:"device,omitempty"`
	IssuedAt  time.Time    `json:"issued_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// HasYouTubeAccess reports whether the session can call the YouTube API.
func (s *Session) HasYouTubeAccess() bool {
	return s.Tokens != nil && (s.Tokens.AccessToken != "" || s.Tokens.RefreshToken != "")
}

// SessionRecord is the server-side part of a session, stored in Redis under
// the session ID. Keeping tokens here instead of inside the cookie keeps the
// cookie small and lets logout revoke them.
type SessionRecord struct {
	UserID    string       `json:"user_id"`
	Tokens    *TokenBundle `json:"tokens,omitempty"`
	Device    string       `json:"device,omitempty"`
	IPAddress string       `json:"ip_address,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
