package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ieraasyl/StreamLink/pkg/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	t.Run("adds request ID to response and context", func(t *testing.T) {
		var fromContext string
		handler := Logger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fromContext = utils.GetRequestID(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		requestID := rec.Header().Get("X-Request-ID")
		assert.Len(t, requestID, 36, "Request ID should be a UUID")
		assert.Equal(t, requestID, fromContext)
	})

	t.Run("reuses incoming request ID", func(t *testing.T) {
		handler := Logger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req.Header.Set("X-Request-ID", "proxy-id-12345")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "proxy-id-12345", rec.Header().Get("X-Request-ID"))
	})

	t.Run("passes status and body through", func(t *testing.T) {
		for _, code := range []int{http.StatusOK, http.StatusSeeOther, http.StatusUnauthorized, http.StatusBadGateway} {
			t.Run(http.StatusText(code), func(t *testing.T) {
				handler := Logger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(code)
					w.Write([]byte("body"))
				}))

				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", nil))

				assert.Equal(t, code, rec.Code)
				assert.Equal(t, "body", rec.Body.String())
			})
		}
	})
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, zerolog.ErrorLevel, levelFor("/api/youtube/live", http.StatusBadGateway))
	assert.Equal(t, zerolog.WarnLevel, levelFor("/api/me", http.StatusUnauthorized))
	assert.Equal(t, zerolog.DebugLevel, levelFor("/health", http.StatusOK))
	assert.Equal(t, zerolog.ErrorLevel, levelFor("/ready", http.StatusServiceUnavailable))
	assert.Equal(t, zerolog.InfoLevel, levelFor("/login", http.StatusSeeOther))
}

func TestRecoverer(t *testing.T) {
	t.Run("recovers from panic and returns 500", func(t *testing.T) {
		handler := Recoverer()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("intentional panic for testing")
		}))

		rec := httptest.NewRecorder()
		assert.NotPanics(t, func() {
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
		})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Something went wrong")
		assert.NotContains(t, rec.Body.String(), "intentional panic")
	})

	t.Run("handles different panic types", func(t *testing.T) {
		cases := map[string]interface{}{
			"string": "error string",
			"error":  assert.AnError,
			"int":    42,
		}

		for name, value := range cases {
			t.Run(name, func(t *testing.T) {
				handler := Recoverer()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					panic(value)
				}))

				rec := httptest.NewRecorder()
				assert.NotPanics(t, func() {
					handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
				})
				assert.Equal(t, http.StatusInternalServerError, rec.Code)
			})
		}
	})

	t.Run("re-panics on aborted handler", func(t *testing.T) {
		handler := Recoverer()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		}))

		assert.Panics(t, func() {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})
}

func TestSecurityHeaders(t *testing.T) {
	serve := func(isProduction bool) http.Header {
		handler := SecurityHeaders(isProduction)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		return rec.Header()
	}

	t.Run("sets hardening headers", func(t *testing.T) {
		headers := serve(false)

		assert.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", headers.Get("X-Frame-Options"))
		assert.Equal(t, "strict-origin-when-cross-origin", headers.Get("Referrer-Policy"))
		assert.Empty(t, headers.Get("Strict-Transport-Security"))
	})

	t.Run("CSP allows avatars and thumbnails", func(t *testing.T) {
		csp := serve(false).Get("Content-Security-Policy")

		assert.Contains(t, csp, "default-src 'self'")
		assert.Contains(t, csp, "https://lh3.googleusercontent.com")
		assert.Contains(t, csp, "https://i.ytimg.com")
		assert.Contains(t, csp, "frame-ancestors 'none'")
	})

	t.Run("HSTS in production", func(t *testing.T) {
		assert.Equal(t, "max-age=31536000; includeSubDomains", serve(true).Get("Strict-Transport-Security"))
	})
}

func TestCORS(t *testing.T) {
	handler := CORS([]string{"https://streamlink.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("allows configured origin with credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Origin", "https://streamlink.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "https://streamlink.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("ignores other origins", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("answers preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/youtube/live", nil)
		req.Header.Set("Origin", "https://streamlink.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
	})
}

func TestMiddlewareChaining(t *testing.T) {
	chain := Recoverer()(Logger()(SecurityHeaders(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Success"))
	}))))

	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Success", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, rec.Header().Get("X-Frame-Options"))
}

func BenchmarkLogger(b *testing.B) {
	handler := Logger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/bench", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}
