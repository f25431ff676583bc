package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ieraasyl/StreamLink/internal/models"
	"github.com/ieraasyl/StreamLink/pkg/cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// historySize is the number of past streams shown on the dashboard.
const historySize = 25

// TokenSourcer turns a stored token bundle into a refreshing token source.
// OAuthService implements it.
type TokenSourcer interface {
	TokenSource(ctx context.Context, tokens models.TokenBundle) oauth2.TokenSource
}

// YouTubeConfig configures a YouTubeService.
type YouTubeConfig struct {
	APIKey     string
	Privacy    string        // Privacy status of new broadcasts
	HistoryTTL time.Duration // Cache lifetime of a user's video history
	Endpoint   string        // API base URL override, empty for Google
}

// YouTubeService starts live broadcasts and lists past streams on behalf of
// a signed-in user. Every call is authorized with the user's OAuth tokens
// and attributed to the project through the API key.
type YouTubeService struct {
	cfg    YouTubeConfig
	tokens TokenSourcer
	cache  *cache.Cache
	now    func() time.Time
}

// NewYouTubeService creates the service. cache may be nil to disable
// history caching.
func NewYouTubeService(cfg YouTubeConfig, tokens TokenSourcer, c *cache.Cache) *YouTubeService {
	if cfg.Privacy == "" {
		cfg.Privacy = "unlisted"
	}
	return &YouTubeService{
		cfg:    cfg,
		tokens: tokens,
		cache:  c,
		now:    time.Now,
	}
}

// apiKeyTransport adds the project API key to every request.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	query := clone.URL.Query()
	query.Set("key", t.key)
	clone.URL.RawQuery = query.Encode()
	return t.base.RoundTrip(clone)
}

func (s *YouTubeService) client(ctx context.Context, tokens *models.TokenBundle) (*youtube.Service, error) {
	if s.cfg.APIKey == "" {
		return nil, models.ErrConfigMissing
	}
	if tokens == nil || (tokens.AccessToken == "" && tokens.RefreshToken == "") {
		return nil, models.ErrNoYouTubeAccess
	}

	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: s.tokens.TokenSource(ctx, *tokens),
			Base:   &apiKeyTransport{key: s.cfg.APIKey, base: http.DefaultTransport},
		},
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if s.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.cfg.Endpoint))
	}

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube client: %w", err)
	}
	return svc, nil
}

// GoLive creates a broadcast and an RTMP ingestion stream, binds them, and
// returns the public watch URL together with the encoder settings.
// An empty title gets a dated default.
func (s *YouTubeService) GoLive(ctx context.Context, session *models.Session, title string) (*models.LiveStream, error) {
	svc, err := s.client(ctx, session.Tokens)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if title == "" {
		title = "StreamLink Live " + now.Format("2006-01-02 15:04")
	}

	broadcast, err := svc.LiveBroadcasts.Insert([]string{"snippet", "status", "contentDetails"}, &youtube.LiveBroadcast{
		Snippet: &youtube.LiveBroadcastSnippet{
			Title:              title,
			ScheduledStartTime: now.Format(time.RFC3339),
		},
		Status: &youtube.LiveBroadcastStatus{
			PrivacyStatus:           s.cfg.Privacy,
			SelfDeclaredMadeForKids: false,
		},
		ContentDetails: &youtube.LiveBroadcastContentDetails{
			EnableAutoStart: true,
			EnableAutoStop:  true,
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, apiError("insert broadcast", err)
	}

	stream, err := svc.LiveStreams.Insert([]string{"snippet", "cdn"}, &youtube.LiveStream{
		Snippet: &youtube.LiveStreamSnippet{Title: title},
		Cdn: &youtube.CdnSettings{
			IngestionType: "rtmp",
			Resolution:    "variable",
			FrameRate:     "variable",
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, apiError("insert stream", err)
	}

	if _, err := svc.LiveBroadcasts.Bind(broadcast.Id, []string{"id", "contentDetails"}).
		StreamId(stream.Id).
		Context(ctx).
		Do(); err != nil {
		return nil, apiError("bind broadcast", err)
	}

	s.InvalidateHistory(ctx, session.UserID)

	live := &models.LiveStream{
		BroadcastID: broadcast.Id,
		StreamID:    stream.Id,
		WatchURL:    WatchURL(broadcast.Id),
		ScheduledAt: now,
	}
	if stream.Cdn != nil && stream.Cdn.IngestionInfo != nil {
		live.IngestionAddress = stream.Cdn.IngestionInfo.IngestionAddress
		live.StreamKey = stream.Cdn.IngestionInfo.StreamName
	}

	log.Info().
		Str("user_id", session.UserID).
		Str("broadcast_id", live.BroadcastID).
		Msg("Live broadcast created")

	return live, nil
}

// VideoHistory lists the user's most recent videos, newest first.
func (s *YouTubeService) VideoHistory(ctx context.Context, session *models.Session) ([]models.Video, error) {
	if s.cfg.APIKey == "" {
		return nil, models.ErrConfigMissing
	}
	if !session.HasYouTubeAccess() {
		return nil, models.ErrNoYouTubeAccess
	}

	if s.cache == nil || s.cfg.HistoryTTL <= 0 {
		return s.fetchHistory(ctx, session.Tokens)
	}

	var videos []models.Video
	err := s.cache.GetOrSet(ctx, cache.VideoHistoryKey(session.UserID), s.cfg.HistoryTTL, &videos, func() (interface{}, error) {
		return s.fetchHistory(ctx, session.Tokens)
	})
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// InvalidateHistory drops the cached history of a user.
func (s *YouTubeService) InvalidateHistory(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.VideoHistoryKey(userID)); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to invalidate video history")
	}
}

func (s *YouTubeService) fetchHistory(ctx context.Context, tokens *models.TokenBundle) ([]models.Video, error) {
	svc, err := s.client(ctx, tokens)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Search.List([]string{"snippet"}).
		ForMine(true).
		Type("video").
		Order("date").
		MaxResults(historySize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, apiError("search videos", err)
	}

	videos := make([]models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}

		video := models.Video{
			ID:           item.Id.VideoId,
			Title:        item.Snippet.Title,
			ThumbnailURL: thumbnailURL(item.Snippet.Thumbnails),
			VideoURL:     WatchURL(item.Id.VideoId),
		}
		if published, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			video.StreamedAt = published.UTC()
		}
		videos = append(videos, video)
	}

	return videos, nil
}

// WatchURL returns the public YouTube URL of a video or broadcast.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

func thumbnailURL(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, thumb := range []*youtube.Thumbnail{t.High, t.Medium, t.Default} {
		if thumb != nil && thumb.Url != "" {
			return thumb.Url
		}
	}
	return ""
}

func apiError(op string, err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		log.Warn().Int("status", gErr.Code).Str("op", op).Msg(gErr.Message)
		return fmt.Errorf("%w: %s: status %d", models.ErrYouTubeAPI, op, gErr.Code)
	}
	return fmt.Errorf("%w: %s: %v", models.ErrYouTubeAPI, op, err)
}
