// Package testutil provides fixtures and helpers shared by StreamLink tests.
package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/ieraasyl/StreamLink/internal/models"
)

// TestSecret is a 32-byte session signing key for tests.
var TestSecret = []byte("test-session-secret-0123456789ab")

// TestUser returns a user that can sign in with both a password and Google.
func TestUser() *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.New(),
		Email:        "test@example.com",
		PasswordHash: "$2a$04$placeholderplaceholderplaceholderplaceholderplaceho",
		GoogleID:     "test-google-id-123",
		Name:         "Test User",
		Picture:      "https://example.com/picture.jpg",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TestGoogleOnlyUser returns a user created through Google sign-in.
func TestGoogleOnlyUser() *models.User {
	user := TestUser()
	user.PasswordHash = ""
	return user
}

// TestTokens returns an OAuth token bundle with a refresh token.
func TestTokens() *models.TokenBundle {
	return &models.TokenBundle{
		AccessToken:  "ya29.test-access-token",
		RefreshToken: "1//test-refresh-token",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}
}

// TestProfile returns a complete Google profile.
func TestProfile() models.GoogleProfile {
	return models.GoogleProfile{
		ExternalID: "google-sub-42",
		Email:      "Streamer@Example.com",
		Name:       "Streamer",
		Picture:    "https://lh3.googleusercontent.com/a/streamer",
	}
}

// StringPtr returns a pointer to the given string.
func StringPtr(s string) *string {
	return &s
}

// UserAgents provides common user agent strings for testing.
var UserAgents = struct {
	Chrome       string
	Safari       string
	MobileSafari string
	Unknown      string
}{
	Chrome:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	Safari:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	MobileSafari: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
	Unknown:      "",
}
