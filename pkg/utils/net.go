package utils

import (
	"net"
	"net/http"
	"strings"
)

// ExtractClientIP returns the originating client IP for a request.
// It honors X-Forwarded-For (first hop) and X-Real-IP set by a reverse proxy
// before falling back to RemoteAddr.
//
// Example:
//
//	ip := utils.ExtractClientIP(r)
//	// "203.0.113.42"
func ExtractClientIP(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
