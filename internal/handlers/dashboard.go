package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ieraasyl/StreamLink/internal/middleware"
	"github.com/ieraasyl/StreamLink/internal/models"
	"github.com/ieraasyl/StreamLink/internal/services"
	"github.com/ieraasyl/StreamLink/pkg/utils"
	"github.com/ieraasyl/StreamLink/templates/pages"
	"github.com/rs/zerolog/log"
)

// maxTitleLength is the longest broadcast title YouTube accepts.
const maxTitleLength = 100

// YouTubeClient is the YouTube side of the dashboard.
type YouTubeClient interface {
	GoLive(ctx context.Context, session *models.Session, title string) (*models.LiveStream, error)
	VideoHistory(ctx context.Context, session *models.Session) ([]models.Video, error)
}

// DashboardHandler serves the dashboard page and the JSON API behind it.
type DashboardHandler struct {
	sessions     middleware.SessionReader
	youtube      YouTubeClient
	isProduction bool
}

// NewDashboardHandler creates the dashboard handler.
func NewDashboardHandler(sessions middleware.SessionReader, youtube YouTubeClient, isProduction bool) *DashboardHandler {
	return &DashboardHandler{
		sessions:     sessions,
		youtube:      youtube,
		isProduction: isProduction,
	}
}

// Dashboard renders the signed-in home page. The route guard only checks
// that a cookie is present, so the session is validated here; an invalid
// cookie is cleared and the visitor sent to /login.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Read(r.Context(), utils.CookieValue(r, services.SessionCookieName))
	if session == nil {
		utils.ClearAuthCookie(w, services.SessionCookieName, h.isProduction)
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}

	data := pages.DashboardPageData{
		Email:   session.Email,
		Picture: session.Picture,
		YouTube: session.HasYouTubeAccess(),
		Welcome: r.URL.Query().Get("success") == "true",
	}

	if data.YouTube {
		videos, err := h.youtube.VideoHistory(r.Context(), session)
		middleware.RecordYouTubeCall("video_history", err)
		if err != nil {
			log.Warn().Err(err).Str("user_id", session.UserID).Msg("Failed to load video history")
			_, data.HistoryError = youtubeErrorFor(err, msgHistoryFailed)
		}
		data.Videos = videos
	}

	render(w, r, http.StatusOK, pages.DashboardPage(data))
}

// GoLiveRequest is the optional body of POST /api/youtube/live.
type GoLiveRequest struct {
	Title string `json:"title"`
}

// GoLive starts a YouTube live broadcast for the signed-in user.
//
// Example request:
//
//	POST /api/youtube/live
//	Cookie: session=eyJhbGci...
//	{"title": "Friday stream"}
//
// Response: models.LiveStream as JSON with 201.
func (h *DashboardHandler) GoLive(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Sign in to continue")
		return
	}

	var req GoLiveRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	title := strings.TrimSpace(req.Title)
	if utf8.RuneCountInString(title) > maxTitleLength {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Title must be at most 100 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	live, err := h.youtube.GoLive(ctx, session, title)
	middleware.RecordYouTubeCall("go_live", err)
	if err != nil {
		log.Error().Err(err).Str("user_id", session.UserID).Msg("Failed to go live")
		status, message := youtubeErrorFor(err, msgGoLiveFailed)
		utils.RespondWithError(w, r, status, message)
		return
	}

	utils.RespondWithJSON(w, r, http.StatusCreated, live)
}

// VideosResponse is the body of GET /api/youtube/videos.
type VideosResponse struct {
	Videos []models.Video `json:"videos"`
}

// Videos lists the user's recent YouTube videos.
func (h *DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Sign in to continue")
		return
	}

	videos, err := h.youtube.VideoHistory(r.Context(), session)
	middleware.RecordYouTubeCall("video_history", err)
	if err != nil {
		log.Warn().Err(err).Str("user_id", session.UserID).Msg("Failed to list videos")
		status, message := youtubeErrorFor(err, msgHistoryFailed)
		utils.RespondWithError(w, r, status, message)
		return
	}

	if videos == nil {
		videos = []models.Video{}
	}
	utils.RespondWithJSON(w, r, http.StatusOK, VideosResponse{Videos: videos})
}

// MeResponse describes the current session.
//
// JSON example:
//
//	{
//	  "user_id": "550e8400-e29b-41d4-a716-446655440000",
//	  "email": "streamer@example.com",
//	  "picture": "https://lh3.googleusercontent.com/...",
//	  "youtube": true,
//	  "expires_at": "2024-05-17T18:30:00Z"
//	}
type MeResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Picture   string    `json:"picture,omitempty"`
	YouTube   bool      `json:"youtube"`
	Device    string    `json:"device,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Me returns the signed-in user's session. Tokens are never included.
func (h *DashboardHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Sign in to continue")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, MeResponse{
		UserID:    session.UserID,
		Email:     session.Email,
		Picture:   session.Picture,
		YouTube:   session.HasYouTubeAccess(),
		Device:    session.Device,
		ExpiresAt: session.ExpiresAt,
	})
}
