package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ieraasyl/StreamLink/internal/models"
	"github.com/ieraasyl/StreamLink/pkg/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuth scopes requested on the consent screen. The YouTube scopes are what
// the dashboard needs to create broadcasts and list past streams.
var OAuthScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/youtube",
	"https://www.googleapis.com/auth/youtube.readonly",
}

// OAuthService runs Google sign-in: consent URL, code exchange, profile
// fetch, and the upsert of the matching StreamLink user.
type OAuthService struct {
	config      *oauth2.Config
	userInfoURL string
	store       CredentialStore
	httpClient  *http.Client
}

// OAuthOption customizes an OAuthService.
type OAuthOption func(*OAuthService)

// WithEndpoint replaces Google's authorization and token endpoints.
func WithEndpoint(endpoint oauth2.Endpoint) OAuthOption {
	return func(s *OAuthService) {
		s.config.Endpoint = endpoint
	}
}

// WithHTTPClient sets the client used for the token exchange and the
// userinfo request.
func WithHTTPClient(client *http.Client) OAuthOption {
	return func(s *OAuthService) {
		s.httpClient = client
	}
}

// CallbackParams are the query parameters of the OAuth redirect, plus the
// state that was stored in the browser before the redirect.
type CallbackParams struct {
	Code          string
	Error         string
	State         string
	ExpectedState string
}

// NewOAuthService creates a Google OAuth client with offline access.
//
// Example:
//
//	oauthSvc := services.NewOAuthService(&cfg.OAuth, store)
//	url, err := oauthSvc.AuthURL(services.GenerateState())
func NewOAuthService(cfg *config.OAuthConfig, store CredentialStore, opts ...OAuthOption) *OAuthService {
	s := &OAuthService{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       OAuthScopes,
			Endpoint:     google.Endpoint,
		},
		userInfoURL: cfg.UserInfoURL,
		store:       store,
	}
	if s.userInfoURL == "" {
		s.userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether client id, secret, and redirect URI are set.
func (s *OAuthService) Configured() bool {
	return s.config.ClientID != "" && s.config.ClientSecret != "" && s.config.RedirectURL != ""
}

// AuthURL builds the Google consent URL. Offline access and a forced consent
// prompt make Google return a refresh token on every sign-in.
//
// Returns models.ErrConfigMissing, without any network call, when the
// client is not configured.
func (s *OAuthService) AuthURL(state string) (string, error) {
	if !s.Configured() {
		return "", models.ErrConfigMissing
	}

	return s.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// Exchange trades an authorization code for tokens and fetches the Google
// profile. Codes are single-use, so nothing here is retried.
//
// Errors:
//   - models.ErrTokenExchangeFailed: token endpoint or userinfo failure
//   - models.ErrIncompleteProfile: the profile lacks an email or an ID
func (s *OAuthService) Exchange(ctx context.Context, code string) (*models.OAuthResult, error) {
	ctx = s.clientContext(ctx)

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to exchange authorization code")
		return nil, fmt.Errorf("%w: %v", models.ErrTokenExchangeFailed, err)
	}

	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	if profile.Email == "" || profile.ExternalID == "" {
		return nil, models.ErrIncompleteProfile
	}

	return &models.OAuthResult{
		Tokens:  models.NewTokenBundle(token),
		Profile: *profile,
	}, nil
}

func (s *OAuthService) fetchProfile(ctx context.Context, token *oauth2.Token) (*models.GoogleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTokenExchangeFailed, err)
	}

	resp, err := s.config.Client(ctx, token).Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch user info from Google")
		return nil, fmt.Errorf("%w: userinfo: %v", models.ErrTokenExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo status %d", models.ErrTokenExchangeFailed, resp.StatusCode)
	}

	var profile models.GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %v", models.ErrTokenExchangeFailed, err)
	}

	return &profile, nil
}

// ResolveUser finds the user with the profile's email and links it to the
// Google account, or creates a new Google-only user. Name and picture are
// refreshed on every sign-in. An existing password is never touched.
func (s *OAuthService) ResolveUser(ctx context.Context, result *models.OAuthResult) (*models.User, error) {
	profile := result.Profile
	email := models.NormalizeEmail(profile.Email)

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		created, err := s.store.Create(ctx, &models.User{
			Email:    email,
			GoogleID: profile.ExternalID,
			Name:     profile.Name,
			Picture:  profile.Picture,
		})
		if err == nil {
			log.Info().
				Str("user_id", created.ID.String()).
				Str("email", created.Email).
				Msg("User created from Google sign-in")
			return created, nil
		}
		if !errors.Is(err, models.ErrDuplicateEmail) {
			return nil, err
		}

		// Another request created the account in the meantime.
		user, err = s.store.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, models.StoreUnavailable("resolve user", models.ErrUserNotFound)
		}
	}

	fields := models.UserFields{
		GoogleID: &profile.ExternalID,
		Name:     &profile.Name,
		Picture:  &profile.Picture,
	}
	if err := s.store.Update(ctx, user.ID, fields); err != nil {
		return nil, err
	}

	user.GoogleID = profile.ExternalID
	user.Name = profile.Name
	user.Picture = profile.Picture

	log.Info().
		Str("user_id", user.ID.String()).
		Str("email", user.Email).
		Msg("User signed in with Google")

	return user, nil
}

// HandleCallback processes the OAuth redirect in order: provider error,
// missing code, state check, configuration, code exchange, user upsert.
// A session may be issued only when it returns without error.
func (s *OAuthService) HandleCallback(ctx context.Context, params CallbackParams) (*models.User, *models.OAuthResult, error) {
	if params.Error != "" {
		return nil, nil, fmt.Errorf("%w: %s", models.ErrProviderDenied, params.Error)
	}
	if params.Code == "" {
		return nil, nil, models.ErrNoCode
	}
	if params.State == "" || subtle.ConstantTimeCompare([]byte(params.State), []byte(params.ExpectedState)) != 1 {
		return nil, nil, models.ErrStateMismatch
	}
	if !s.Configured() {
		return nil, nil, models.ErrConfigMissing
	}

	result, err := s.Exchange(ctx, params.Code)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.ResolveUser(ctx, result)
	if err != nil {
		return nil, nil, err
	}

	return user, result, nil
}

// TokenSource returns a token source that refreshes the bundle's access
// token with its refresh token when it expires.
func (s *OAuthService) TokenSource(ctx context.Context, tokens models.TokenBundle) oauth2.TokenSource {
	return s.config.TokenSource(s.clientContext(ctx), tokens.OAuth2Token())
}

func (s *OAuthService) clientContext(ctx context.Context) context.Context {
	if s.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// GenerateState returns a random OAuth state value for CSRF protection.
// It is stored in a short-lived cookie before the redirect to Google and
// compared on the callback.
func GenerateState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
