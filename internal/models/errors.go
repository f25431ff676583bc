package models

import (
	"errors"
	"fmt"
)

// Authentication failure taxonomy. Every error is terminal for the current
// request; none are retried automatically.
var (
	// ErrConfigMissing means Google OAuth or YouTube credentials are not configured.
	ErrConfigMissing = errors.New("required configuration is missing")

	// ErrProviderDenied means Google returned an error instead of an authorization code.
	ErrProviderDenied = errors.New("identity provider denied the request")

	// ErrNoCode means the OAuth callback carried neither a code nor an error.
	ErrNoCode = errors.New("authorization code missing from callback")

	// ErrStateMismatch means the callback state does not match the state cookie.
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrTokenExchangeFailed covers network errors, invalid or reused codes,
	// and redirect URI mismatches during the code exchange.
	ErrTokenExchangeFailed = errors.New("authorization code exchange failed")

	// ErrIncompleteProfile means the Google profile lacks an email or a stable ID.
	ErrIncompleteProfile = errors.New("identity provider returned an incomplete profile")

	ErrDuplicateEmail     = errors.New("user with this email already exists")
	ErrWeakPassword       = errors.New("password does not satisfy the password policy")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrGoogleOnlyAccount means the account exists but has no password; the
	// user must sign in with Google instead.
	ErrGoogleOnlyAccount = errors.New("account uses google sign-in")

	// ErrStoreUnavailable wraps infrastructure failures of the credential store.
	ErrStoreUnavailable = errors.New("credential store unavailable")

	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidEmail    = errors.New("email is required")
	ErrNoAuthMethod    = errors.New("user must have a password or a google account")
	ErrNoYouTubeAccess = errors.New("session has no youtube authorization")
	ErrYouTubeAPI      = errors.New("youtube api request failed")
)

// ValidationError reports a single invalid form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets callers match password policy failures with errors.Is(err, ErrWeakPassword).
func (e *ValidationError) Unwrap() error {
	if e.Field == "password" {
		return ErrWeakPassword
	}
	return nil
}

// IsOperatorError reports whether err should be surfaced as a server
// configuration problem rather than a user-facing validation message.
func IsOperatorError(err error) bool {
	return errors.Is(err, ErrConfigMissing) || errors.Is(err, ErrStoreUnavailable)
}

// StoreUnavailable wraps an infrastructure error so that it matches ErrStoreUnavailable.
func StoreUnavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
