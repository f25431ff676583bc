package cache

import "fmt"

// Key prefixes. All keys follow the pattern "prefix:identifier".
const (
	SessionPrefix   = "session:"
	RateLimitPrefix = "ratelimit:"
	VideosPrefix    = "videos:"
)

// SessionKey is where the server-side half of a session is stored.
//
// Example: "session:6f1c2a9e-3b7d-4c1e-9a55-0d2f7b8e4a10"
func SessionKey(sessionID string) string {
	return fmt.Sprintf("%s%s", SessionPrefix, sessionID)
}

// RateLimitKey counts requests from one IP to one endpoint.
//
// Example: "ratelimit:203.0.113.42:login"
func RateLimitKey(ip, endpoint string) string {
	return fmt.Sprintf("%s%s:%s", RateLimitPrefix, ip, endpoint)
}

// VideoHistoryKey caches the YouTube stream history of a user.
//
// Example: "videos:550e8400-e29b-41d4-a716-446655440000"
func VideoHistoryKey(userID string) string {
	return fmt.Sprintf("%s%s", VideosPrefix, userID)
}
