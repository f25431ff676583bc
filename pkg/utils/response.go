// Package utils provides HTTP helpers shared by handlers and middleware:
// JSON responses, request ID propagation, auth cookies, client IP
// extraction, and connection retry.
package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type contextKey string

// SessionCookieName is the cookie carrying the signed session.
const SessionCookieName = "session"

const requestIDKey contextKey = "request_id"

// GetRequestID returns the request ID stored by the logging middleware, or "".
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID returns a copy of ctx carrying requestID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ErrorResponse is the JSON body of every API error.
//
//	{
//	  "error": "Unauthorized",
//	  "message": "Sign in again to continue",
//	  "request_id": "550e8400-e29b-41d4-a716-446655440000"
//	}
type ErrorResponse struct {
	Error     string `json:"error"`                // HTTP status text
	Message   string `json:"message,omitempty"`    // Human-readable detail
	RequestID string `json:"request_id,omitempty"` // Correlates with server logs
}

// RespondWithError writes an ErrorResponse with the given status.
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	RespondWithJSON(w, r, statusCode, ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		RequestID: GetRequestID(r.Context()),
	})
}

// RespondWithJSON encodes data as the JSON response body.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Err(err).
			Str("request_id", GetRequestID(r.Context())).
			Msg("Failed to encode JSON response")
	}
}

// SetAuthCookieWithMaxAge sets an HttpOnly cookie scoped to the whole site.
// Secure is enabled in production so the cookie is never sent over plain HTTP.
//
// Example:
//
//	utils.SetAuthCookieWithMaxAge(w, "session", value, 604800, cfg.IsProduction())
func SetAuthCookieWithMaxAge(w http.ResponseWriter, name, value string, maxAge int, isProduction bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// SetSessionCookie sets the session cookie for maxAge.
func SetSessionCookie(w http.ResponseWriter, value string, maxAge time.Duration, isProduction bool) {
	SetAuthCookieWithMaxAge(w, SessionCookieName, value, int(maxAge.Seconds()), isProduction)
}

// ClearAuthCookie expires a cookie immediately, regardless of its Max-Age.
func ClearAuthCookie(w http.ResponseWriter, name string, isProduction bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// CookieValue returns the value of the named cookie, or "" when absent.
func CookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
