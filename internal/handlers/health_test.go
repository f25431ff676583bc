package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ieraasyl/StreamLink/internal/testutil"
	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	healthy   = pingerFunc(func(context.Context) error { return nil })
	unhealthy = pingerFunc(func(context.Context) error { return errors.New("connection refused") })
)

func TestHealth(t *testing.T) {
	handler := NewHealthHandler("firestore", unhealthy, unhealthy)

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var response HealthResponse
	testutil.ParseJSONResponse(t, rec, &response)
	assert.Equal(t, "ok", response.Status)
	assert.False(t, response.Timestamp.IsZero())
	assert.Nil(t, response.Services, "liveness never checks dependencies")
}

func TestReady(t *testing.T) {
	tests := []struct {
		name     string
		store    Pinger
		redis    Pinger
		status   int
		overall  string
		services map[string]string
	}{
		{"all healthy", healthy, healthy, http.StatusOK, "ok", map[string]string{"firestore": "healthy", "redis": "healthy"}},
		{"store down", unhealthy, healthy, http.StatusServiceUnavailable, "degraded", map[string]string{"firestore": "unhealthy", "redis": "healthy"}},
		{"redis down", healthy, unhealthy, http.StatusServiceUnavailable, "degraded", map[string]string{"firestore": "healthy", "redis": "unhealthy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler("firestore", tt.store, tt.redis)

			rec := httptest.NewRecorder()
			handler.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.status, rec.Code)
			var response HealthResponse
			testutil.ParseJSONResponse(t, rec, &response)
			assert.Equal(t, tt.overall, response.Status)
			assert.Equal(t, tt.services, response.Services)
		})
	}
}

func TestReady_Wired(t *testing.T) {
	app := newTestApp(t)

	rec := app.get("/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	app.redis.Close()
	rec = app.get("/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
