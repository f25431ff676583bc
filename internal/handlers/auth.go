package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/ieraasyl/StreamLink/internal/middleware"
	"github.com/ieraasyl/StreamLink/internal/models"
	"github.com/ieraasyl/StreamLink/internal/services"
	"github.com/ieraasyl/StreamLink/pkg/utils"
	"github.com/ieraasyl/StreamLink/templates/pages"
	"github.com/rs/zerolog/log"
)

// oauthStateCookie holds the CSRF state between the redirect to Google and
// the callback.
const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 600
)

// PasswordAuthenticator signs users up and in with email and password.
type PasswordAuthenticator interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
}

// GoogleAuthenticator runs the Google OAuth flow.
type GoogleAuthenticator interface {
	AuthURL(state string) (string, error)
	HandleCallback(ctx context.Context, params services.CallbackParams) (*models.User, *models.OAuthResult, error)
}

// SessionManager issues, reads and revokes sessions.
type SessionManager interface {
	Issue(ctx context.Context, in services.SessionInput) (string, *models.Session, error)
	Read(ctx context.Context, value string) *models.Session
	Revoke(ctx context.Context, value string) error
	TTL() time.Duration
}

// AuthOptions tune the authentication handlers.
type AuthOptions struct {
	IsProduction bool // Secure cookies

	// RevealGoogleOnly tells a user who tries a password on a Google-only
	// account to continue with Google. Off by default since it reveals that
	// the account exists.
	RevealGoogleOnly bool
}

// AuthHandler serves the login and registration pages, their form actions,
// logout, and the Google sign-in flow.
//
// No session cookie is set unless every step of a sign-in succeeded.
type AuthHandler struct {
	passwords PasswordAuthenticator
	google    GoogleAuthenticator
	sessions  SessionManager
	opts      AuthOptions
}

// NewAuthHandler creates the authentication handler.
//
// Example:
//
//	authHandler := handlers.NewAuthHandler(passwordSvc, oauthSvc, sessionSvc, handlers.AuthOptions{
//	    IsProduction: cfg.IsProduction(),
//	})
func NewAuthHandler(passwords PasswordAuthenticator, google GoogleAuthenticator, sessions SessionManager, opts AuthOptions) *AuthHandler {
	return &AuthHandler{
		passwords: passwords,
		google:    google,
		sessions:  sessions,
		opts:      opts,
	}
}

// authPageFunc builds the login or register page.
type authPageFunc func(pages.AuthPageData) templ.Component

// LoginPage renders the sign-in form. An error code left by the Google flow
// is shown as a banner.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, pages.LoginPage(pages.AuthPageData{
		Notice: loginNotice(r.URL.Query().Get("error")),
	}))
}

// RegisterPage renders the sign-up form.
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, pages.RegisterPage(pages.AuthPageData{}))
}

// Login handles the sign-in form.
//
// Responses:
//   - 303 to /dashboard with a session cookie on success
//   - the form again with 400 (invalid field), 401 (bad credentials) or
//     503 (store or configuration failure)
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.handleForm(w, r, pages.LoginPage, "password", h.passwords.Login)
}

// Register handles the sign-up form. A duplicate email answers 409.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.handleForm(w, r, pages.RegisterPage, "register", h.passwords.Register)
}

func (h *AuthHandler) handleForm(
	w http.ResponseWriter,
	r *http.Request,
	page authPageFunc,
	method string,
	authenticate func(ctx context.Context, email, password string) (*models.User, error),
) {
	if err := r.ParseForm(); err != nil {
		render(w, r, http.StatusBadRequest, page(pages.AuthPageData{FormError: msgUnexpected}))
		return
	}

	email := r.PostFormValue("email")
	user, err := authenticate(r.Context(), email, r.PostFormValue("password"))
	middleware.RecordAuthAttempt(method, resultLabel(err))

	if err != nil {
		fe := formErrorFor(err, h.opts.RevealGoogleOnly)
		logFormFailure(r, method, err, fe.Status)

		data := pages.AuthPageData{Email: email}
		if fe.Field != "" {
			data.FieldErrors = map[string]string{fe.Field: fe.Message}
		} else {
			data.FormError = fe.Message
		}
		render(w, r, fe.Status, page(data))
		return
	}

	if err := h.startSession(w, r, user, nil); err != nil {
		render(w, r, http.StatusServiceUnavailable, page(pages.AuthPageData{
			Email:     email,
			FormError: msgServerConfig,
		}))
		return
	}

	http.Redirect(w, r, middleware.DashboardPath, http.StatusSeeOther)
}

func logFormFailure(r *http.Request, method string, err error, status int) {
	event := log.Info()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.
		Err(err).
		Str("method", method).
		Str("ip", utils.ExtractClientIP(r)).
		Str("request_id", utils.GetRequestID(r.Context())).
		Msg("Authentication failed")
}

// Logout revokes the session and returns to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if value := utils.CookieValue(r, services.SessionCookieName); value != "" {
		if err := h.sessions.Revoke(r.Context(), value); err != nil {
			log.Warn().Err(err).Msg("Failed to revoke session")
		}
	}

	utils.ClearAuthCookie(w, services.SessionCookieName, h.opts.IsProduction)
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// GoogleLogin stores a fresh OAuth state in a short-lived cookie and
// redirects to Google's consent screen. Form posts get a 303 so the browser
// follows with a GET.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := services.GenerateState()

	authURL, err := h.google.AuthURL(state)
	if err != nil {
		log.Error().Err(err).Msg("Google sign-in is not configured")
		middleware.RecordAuthAttempt("google", resultLabel(err))
		redirectToLogin(w, r, ErrorServerConfig)
		return
	}

	utils.SetAuthCookieWithMaxAge(w, oauthStateCookie, state, oauthStateMaxAge, h.opts.IsProduction)

	status := http.StatusTemporaryRedirect
	if r.Method == http.MethodPost {
		status = http.StatusSeeOther
	}
	http.Redirect(w, r, authURL, status)
}

// GoogleCallback completes the Google sign-in. Failures redirect to
// /login?error=oauth_failed, server_config or token_exchange_failed; on
// success the session carries the OAuth tokens.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	expected := utils.CookieValue(r, oauthStateCookie)
	utils.ClearAuthCookie(w, oauthStateCookie, h.opts.IsProduction)

	user, result, err := h.google.HandleCallback(r.Context(), services.CallbackParams{
		Code:          query.Get("code"),
		Error:         query.Get("error"),
		State:         query.Get("state"),
		ExpectedState: expected,
	})
	middleware.RecordAuthAttempt("google", resultLabel(err))

	if err != nil {
		code := callbackErrorCode(err)
		log.Warn().
			Err(err).
			Str("redirect_error", code).
			Str("request_id", utils.GetRequestID(r.Context())).
			Msg("Google sign-in failed")
		redirectToLogin(w, r, code)
		return
	}

	if err := h.startSession(w, r, user, &result.Tokens); err != nil {
		redirectToLogin(w, r, ErrorServerConfig)
		return
	}

	http.Redirect(w, r, middleware.DashboardPath+"?success=true", http.StatusSeeOther)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *models.User, tokens *models.TokenBundle) error {
	value, _, err := h.sessions.Issue(r.Context(), services.SessionInput{
		User:      user,
		Tokens:    tokens,
		Device:    services.ExtractDeviceInfo(r.UserAgent()),
		IPAddress: utils.ExtractClientIP(r),
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", user.ID.String()).
			Msg("Failed to issue session")
		return err
	}

	utils.SetSessionCookie(w, value, h.sessions.TTL(), h.opts.IsProduction)
	return nil
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, middleware.LoginPath+"?error="+code, http.StatusSeeOther)
}
