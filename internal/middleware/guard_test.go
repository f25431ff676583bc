package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ieraasyl/StreamLink/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestGuard(t *testing.T) {
	tests := []struct {
		name       string
		hasSession bool
		path       string
		redirect   string
	}{
		{"visitor on dashboard", false, "/dashboard", "/login"},
		{"visitor on dashboard subpage", false, "/dashboard/videos", "/login"},
		{"visitor on lookalike path", false, "/dashboards", ""},
		{"visitor on login", false, "/login", ""},
		{"visitor on register", false, "/register", ""},
		{"visitor on home", false, "/", ""},
		{"member on login", true, "/login", "/dashboard"},
		{"member on register", true, "/register", "/dashboard"},
		{"member on login subpath", true, "/login/", "/dashboard"},
		{"member on register subpath", true, "/register/confirm", "/dashboard"},
		{"member on login lookalike", true, "/loginhelp", ""},
		{"member on dashboard", true, "/dashboard", ""},
		{"member on api", true, "/api/me", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Guard(tt.hasSession, tt.path)
			assert.Equal(t, tt.redirect, decision.Redirect)
			assert.Equal(t, tt.redirect == "", decision.Allowed())
		})
	}
}

func TestRouteGuard(t *testing.T) {
	reached := false
	handler := RouteGuard()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("redirects visitor away from dashboard", func(t *testing.T) {
		reached = false
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.False(t, reached)
	})

	t.Run("cookie presence alone passes the guard", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: services.SessionCookieName, Value: "unverified"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, reached)
	})

	t.Run("redirects member away from login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req.AddCookie(&http.Cookie{Name: services.SessionCookieName, Value: "x"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	})

	t.Run("form posts are not guarded", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.AddCookie(&http.Cookie{Name: services.SessionCookieName, Value: "x"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.True(t, reached)
	})
}
