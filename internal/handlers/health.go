// Package handlers provides the HTTP handlers of StreamLink: the login,
// registration and dashboard pages, the Google sign-in flow, the YouTube
// JSON API, and health checks.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ieraasyl/StreamLink/pkg/utils"
	"github.com/rs/zerolog/log"
)

// Pinger is a dependency the readiness check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness checks.
type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler creates a health handler checking the credential store
// and Redis. storeName labels the store in the readiness report.
//
// Example:
//
//	healthHandler := handlers.NewHealthHandler(cfg.Store.Backend, store, redisDB)
//	r.Get("/health", healthHandler.Health)
//	r.Get("/ready", healthHandler.Ready)
func NewHealthHandler(storeName string, store Pinger, redis Pinger) *HealthHandler {
	return &HealthHandler{
		checks: map[string]Pinger{
			storeName: store,
			"redis":   redis,
		},
	}
}

// HealthResponse is the body of both checks.
//
// JSON example:
//
//	{
//	  "status": "ok",
//	  "timestamp": "2024-01-20T14:30:00Z",
//	  "services": {
//	    "firestore": "healthy",
//	    "redis": "healthy"
//	  }
//	}
type HealthResponse struct {
	Status    string            `json:"status"`             // "ok" or "degraded"
	Timestamp time.Time         `json:"timestamp"`          // Current server time
	Services  map[string]string `json:"services,omitempty"` // Dependency health (readiness only)
}

// Health is the liveness check. It never checks dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready is the readiness check: 200 when the store and Redis answer within
// five seconds, 503 otherwise.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string, len(h.checks))
	allHealthy := true

	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			log.Error().Err(err).Str("service", name).Msg("Health check failed")
			services[name] = "unhealthy"
			allHealthy = false
			continue
		}
		services[name] = "healthy"
	}

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Services:  services,
	}

	statusCode := http.StatusOK
	if !allHealthy {
		response.Status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	utils.RespondWithJSON(w, r, statusCode, response)
}
