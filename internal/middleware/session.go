// Package middleware provides the HTTP middleware for StreamLink: route
// guarding, session loading, request logging, metrics, rate limiting,
// and security headers. Everything composes with the chi router.
package middleware

import (
	"context"
	"net/http"

	"github.com/ieraasyl/StreamLink/internal/models"
	"github.com/ieraasyl/StreamLink/internal/services"
	"github.com/ieraasyl/StreamLink/pkg/utils"
	"github.com/rs/zerolog/log"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionReader validates a session cookie value. SessionService implements it.
type SessionReader interface {
	Read(ctx context.Context, value string) *models.Session
}

// RequireSession loads and validates the session for JSON endpoints.
// Requests without a valid session get 401.
//
// Usage:
//
//	r.With(middleware.RequireSession(sessionSvc)).Get("/api/me", h.Me)
func RequireSession(sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sessions.Read(r.Context(), utils.CookieValue(r, services.SessionCookieName))
			if session == nil {
				log.Debug().Str("path", r.URL.Path).Msg("Request without valid session")
				utils.RespondWithError(w, r, http.StatusUnauthorized, "Sign in to continue")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// WithSession returns a copy of ctx carrying session.
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(sessionKey).(*models.Session)
	return session, ok && session != nil
}
