package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/ieraasyl/StreamLink/internal/middleware"
)

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	Auth      *AuthHandler
	Dashboard *DashboardHandler
	Health    *HealthHandler
	Sessions  middleware.SessionReader

	// RateLimiter guards the credential endpoints. Nil disables limiting.
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	IsProduction   bool
}

// NewRouter builds the StreamLink HTTP routes.
//
//	GET  /                          -> /dashboard
//	GET  /login, /register          pages (visitors only)
//	POST /login, /register          form actions (rate limited)
//	POST /logout
//	GET  /dashboard                 page (signed in only)
//	GET|POST /auth/google           start Google sign-in
//	GET  /api/auth/callback/google  Google redirect target
//	POST /api/youtube/live          JSON, session required
//	GET  /api/youtube/videos        JSON, session required
//	GET  /api/me                    JSON, session required
//	GET  /health, /ready, /metrics
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger())
	r.Use(middleware.Recoverer())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(cfg.IsProduction))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(60 * time.Second))
	// Mux-level so unrouted paths such as /login/ or /dashboard/x are guarded too.
	r.Use(middleware.RouteGuard())

	r.Get("/health", cfg.Health.Health)
	r.Get("/ready", cfg.Health.Ready)
	r.Handle("/metrics", middleware.MetricsHandler())

	limit := func(endpoint string) func(http.Handler) http.Handler {
		if cfg.RateLimiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return cfg.RateLimiter.Limit(endpoint)
	}

	// Pages and form actions
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, middleware.DashboardPath, http.StatusSeeOther)
	})
	r.Get(middleware.LoginPath, cfg.Auth.LoginPage)
	r.Get(middleware.RegisterPath, cfg.Auth.RegisterPage)
	r.With(limit("login")).Post(middleware.LoginPath, cfg.Auth.Login)
	r.With(limit("register")).Post(middleware.RegisterPath, cfg.Auth.Register)
	r.Post("/logout", cfg.Auth.Logout)
	r.Get(middleware.DashboardPath, cfg.Dashboard.Dashboard)

	r.With(limit("google")).Get("/auth/google", cfg.Auth.GoogleLogin)
	r.With(limit("google")).Post("/auth/google", cfg.Auth.GoogleLogin)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.AllowedOrigins))

		r.With(limit("google")).Get("/auth/callback/google", cfg.Auth.GoogleCallback)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(cfg.Sessions))
			r.Post("/youtube/live", cfg.Dashboard.GoLive)
			r.Get("/youtube/videos", cfg.Dashboard.Videos)
			r.Get("/me", cfg.Dashboard.Me)
		})
	})

	return r
}
