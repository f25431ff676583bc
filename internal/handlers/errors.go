package handlers

import (
	"errors"
	"net/http"

	"github.com/ieraasyl/StreamLink/internal/models"
)

// Query values of /login?error=... set by the Google sign-in flow.
const (
	ErrorOAuthFailed         = "oauth_failed"
	ErrorServerConfig        = "server_config"
	ErrorTokenExchangeFailed = "token_exchange_failed"
)

// User-facing messages.
const (
	msgInvalidCredentials = "Invalid email or password"
	msgGoogleOnly         = "This account uses Google sign-in. Continue with Google instead."
	msgDuplicateEmail     = "User with this email already exists"
	msgServerConfig       = "There is a server configuration issue. Please contact support."
	msgUnexpected         = "An unexpected error occurred. Please try again."
	msgYouTubeConfig      = "Server configuration error. The administrator needs to set up YouTube API credentials."
	msgNoYouTubeAccess    = "Sign in with Google to use YouTube features."
	msgGoLiveFailed       = "Failed to start live stream. Please try again."
	msgHistoryFailed      = "Failed to load your videos. Please try again."
)

// loginNotices maps the error query parameter to the banner on the login page.
var loginNotices = map[string]string{
	ErrorOAuthFailed:         "Google sign-in failed. Please try again.",
	ErrorServerConfig:        msgServerConfig,
	ErrorTokenExchangeFailed: "Could not verify your Google account. Please try again.",
}

func loginNotice(code string) string {
	if code == "" {
		return ""
	}
	if notice, ok := loginNotices[code]; ok {
		return notice
	}
	return msgUnexpected
}

// formError is a failed login or registration as shown on the form.
type formError struct {
	Status  int
	Field   string // "email", "password", or "" for the whole form
	Message string
}

// formErrorFor maps a PasswordService error to the form response. A
// Google-only account reads as bad credentials unless revealGoogleOnly is set.
func formErrorFor(err error, revealGoogleOnly bool) formError {
	var validationErr *models.ValidationError

	switch {
	case errors.As(err, &validationErr):
		return formError{Status: http.StatusBadRequest, Field: validationErr.Field, Message: validationErr.Message}
	case errors.Is(err, models.ErrDuplicateEmail):
		return formError{Status: http.StatusConflict, Message: msgDuplicateEmail}
	case errors.Is(err, models.ErrGoogleOnlyAccount):
		if revealGoogleOnly {
			return formError{Status: http.StatusUnauthorized, Message: msgGoogleOnly}
		}
		return formError{Status: http.StatusUnauthorized, Message: msgInvalidCredentials}
	case errors.Is(err, models.ErrInvalidCredentials):
		return formError{Status: http.StatusUnauthorized, Message: msgInvalidCredentials}
	case models.IsOperatorError(err):
		return formError{Status: http.StatusServiceUnavailable, Message: msgServerConfig}
	default:
		return formError{Status: http.StatusInternalServerError, Message: msgUnexpected}
	}
}

// callbackErrorCode maps a failed Google callback to the /login error code.
func callbackErrorCode(err error) string {
	switch {
	case errors.Is(err, models.ErrProviderDenied),
		errors.Is(err, models.ErrNoCode),
		errors.Is(err, models.ErrStateMismatch):
		return ErrorOAuthFailed
	case models.IsOperatorError(err):
		return ErrorServerConfig
	default:
		return ErrorTokenExchangeFailed
	}
}

// youtubeErrorFor maps a YouTubeService error to an API status. fallback is
// the message for upstream failures.
func youtubeErrorFor(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, models.ErrNoYouTubeAccess):
		return http.StatusForbidden, msgNoYouTubeAccess
	case errors.Is(err, models.ErrConfigMissing):
		return http.StatusServiceUnavailable, msgYouTubeConfig
	case errors.Is(err, models.ErrYouTubeAPI):
		return http.StatusBadGateway, fallback
	default:
		return http.StatusInternalServerError, fallback
	}
}

// resultLabel names an auth outcome for the auth_attempts_total metric.
func resultLabel(err error) string {
	var validationErr *models.ValidationError

	switch {
	case err == nil:
		return "success"
	case errors.As(err, &validationErr):
		return "invalid_form"
	case errors.Is(err, models.ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, models.ErrGoogleOnlyAccount):
		return "google_only"
	case errors.Is(err, models.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, models.ErrProviderDenied):
		return "provider_denied"
	case errors.Is(err, models.ErrNoCode):
		return "no_code"
	case errors.Is(err, models.ErrStateMismatch):
		return "state_mismatch"
	case errors.Is(err, models.ErrTokenExchangeFailed):
		return "token_exchange_failed"
	case errors.Is(err, models.ErrIncompleteProfile):
		return "incomplete_profile"
	case errors.Is(err, models.ErrConfigMissing):
		return "config_missing"
	case errors.Is(err, models.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}
