package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ieraasyl/StreamLink/internal/models"
	"golang.org/x/oauth2"
)

// FakeGoogle stands in for Google's token and userinfo endpoints.
// Authorization codes are single-use, like the real ones.
type FakeGoogle struct {
	Server *httptest.Server

	mu        sync.Mutex
	codes     map[string]models.GoogleProfile
	used      map[string]bool
	tokens    map[string]models.GoogleProfile
	failing   bool
	exchanges int
}

// NewFakeGoogle starts the fake server; it is closed when the test ends.
func NewFakeGoogle(t *testing.T) *FakeGoogle {
	t.Helper()

	f := &FakeGoogle{
		codes:  make(map[string]models.GoogleProfile),
		used:   make(map[string]bool),
		tokens: make(map[string]models.GoogleProfile),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", f.handleToken)
	mux.HandleFunc("/userinfo", f.handleUserInfo)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)

	return f
}

// AddCode registers an authorization code that resolves to profile.
func (f *FakeGoogle) AddCode(code string, profile models.GoogleProfile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code] = profile
}

// Endpoint returns an oauth2 endpoint pointing at the fake.
func (f *FakeGoogle) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   f.Server.URL + "/auth",
		TokenURL:  f.Server.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// UserInfoURL returns the fake userinfo URL.
func (f *FakeGoogle) UserInfoURL() string {
	return f.Server.URL + "/userinfo"
}

// SetFailing makes the token endpoint answer 500.
func (f *FakeGoogle) SetFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

// ExchangeCount returns how many token requests were received.
func (f *FakeGoogle) ExchangeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchanges
}

func (f *FakeGoogle) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchanges++

	if f.failing {
		http.Error(w, "backend error", http.StatusInternalServerError)
		return
	}

	code := r.FormValue("code")
	profile, ok := f.codes[code]
	if !ok || f.used[code] {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Bad Request",
		})
		return
	}
	f.used[code] = true

	accessToken := "access-" + code
	f.tokens[accessToken] = profile

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": "refresh-" + code,
		"token_type":    "Bearer",
		"expires_in":    3600,
	})
}

func (f *FakeGoogle) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	f.mu.Lock()
	profile, ok := f.tokens[token]
	f.mu.Unlock()

	if !ok {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}
