package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ieraasyl/StreamLink/internal/database"
	"github.com/ieraasyl/StreamLink/internal/models"
	"github.com/ieraasyl/StreamLink/internal/services"
	"github.com/ieraasyl/StreamLink/internal/testutil"
	"github.com/ieraasyl/StreamLink/pkg/config"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// stubYouTube records dashboard calls into the YouTube integration.
type stubYouTube struct {
	live      *models.LiveStream
	videos    []models.Video
	err       error
	titles    []string
	historyBy []string
}

func (s *stubYouTube) GoLive(_ context.Context, session *models.Session, title string) (*models.LiveStream, error) {
	s.titles = append(s.titles, title)
	if s.err != nil {
		return nil, s.err
	}
	return s.live, nil
}

func (s *stubYouTube) VideoHistory(_ context.Context, session *models.Session) ([]models.Video, error) {
	s.historyBy = append(s.historyBy, session.UserID)
	if s.err != nil {
		return nil, s.err
	}
	return s.videos, nil
}

// testApp is the full router over in-memory and fake dependencies.
type testApp struct {
	router   http.Handler
	store    *database.MemoryStore
	sessions *services.SessionService
	google   *testutil.FakeGoogle
	youtube  *stubYouTube
	redis    *miniredis.Miniredis
}

type appOption func(*AuthOptions, *config.OAuthConfig)

func revealGoogleOnly() appOption {
	return func(o *AuthOptions, _ *config.OAuthConfig) { o.RevealGoogleOnly = true }
}

func withoutGoogleConfig() appOption {
	return func(_ *AuthOptions, c *config.OAuthConfig) { c.ClientID = "" }
}

func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()

	mr := testutil.SetupMiniRedis(t)
	redisDB := testutil.NewTestRedisDB(t, mr)
	store := database.NewMemoryStore()
	google := testutil.NewFakeGoogle(t)

	authOpts := AuthOptions{}
	oauthCfg := &config.OAuthConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURL:  "http://localhost:8080/api/auth/callback/google",
		UserInfoURL:  google.UserInfoURL(),
	}
	for _, opt := range opts {
		opt(&authOpts, oauthCfg)
	}

	passwords, err := services.NewPasswordService(store, bcrypt.MinCost)
	require.NoError(t, err)
	oauth := services.NewOAuthService(oauthCfg, store, services.WithEndpoint(google.Endpoint()))
	sessions := services.NewSessionService(testutil.TestSecret, config.SessionTTL, redisDB)
	youtube := &stubYouTube{}

	router := NewRouter(RouterConfig{
		Auth:      NewAuthHandler(passwords, oauth, sessions, authOpts),
		Dashboard: NewDashboardHandler(sessions, youtube, false),
		Health:    NewHealthHandler(config.StoreMemory, store, redisDB),
		Sessions:  sessions,
	})

	return &testApp{
		router:   router,
		store:    store,
		sessions: sessions,
		google:   google,
		youtube:  youtube,
		redis:    mr,
	}
}

func (a *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return a.serve(req)
}

// signIn issues a session directly and returns its cookie.
func (a *testApp) signIn(t *testing.T, user *models.User, tokens *models.TokenBundle) *http.Cookie {
	t.Helper()

	value, _, err := a.sessions.Issue(context.Background(), services.SessionInput{User: user, Tokens: tokens})
	require.NoError(t, err)
	return &http.Cookie{Name: services.SessionCookieName, Value: value}
}
