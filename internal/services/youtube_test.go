package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ieraasyl/StreamLink/internal/models"
	"github.com/ieraasyl/StreamLink/internal/testutil"
	"github.com/ieraasyl/StreamLink/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type staticTokens struct{}

func (staticTokens) TokenSource(_ context.Context, tokens models.TokenBundle) oauth2.TokenSource {
	return oauth2.StaticTokenSource(tokens.OAuth2Token())
}

// fakeYouTube records calls made to the YouTube Data API.
type fakeYouTube struct {
	mu       sync.Mutex
	calls    map[string]int
	failWith int
}

func (f *fakeYouTube) fail(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = status
}

func (f *fakeYouTube) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func newFakeYouTube(t *testing.T) (*fakeYouTube, *httptest.Server) {
	t.Helper()

	f := &fakeYouTube{calls: make(map[string]int)}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[r.URL.Path]++
		failWith := f.failWith
		f.mu.Unlock()

		assert.Equal(t, "test-api-key", r.URL.Query().Get("key"))
		assert.Equal(t, "Bearer ya29.test-access-token", r.Header.Get("Authorization"))

		if failWith != 0 {
			w.WriteHeader(failWith)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{"code": failWith, "message": "quotaExceeded"},
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/youtube/v3/liveBroadcasts":
			var body map[string]interface{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if status, ok := body["status"].(map[string]interface{}); assert.True(t, ok) {
				assert.Equal(t, "unlisted", status["privacyStatus"])
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"id": "bcast-1"})
		case "/youtube/v3/liveStreams":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id": "stream-1",
				"cdn": map[string]interface{}{
					"ingestionInfo": map[string]interface{}{
						"ingestionAddress": "rtmp://a.rtmp.youtube.com/live2",
						"streamName":       "abcd-efgh",
					},
				},
			})
		case "/youtube/v3/liveBroadcasts/bind":
			assert.Equal(t, "bcast-1", r.URL.Query().Get("id"))
			assert.Equal(t, "stream-1", r.URL.Query().Get("streamId"))
			json.NewEncoder(w).Encode(map[string]interface{}{"id": "bcast-1"})
		case "/youtube/v3/search":
			assert.Equal(t, "true", r.URL.Query().Get("forMine"))
			assert.Equal(t, "video", r.URL.Query().Get("type"))
			assert.Equal(t, "date", r.URL.Query().Get("order"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"items": []map[string]interface{}{
					{
						"id": map[string]interface{}{"videoId": "vid-2"},
						"snippet": map[string]interface{}{
							"title":       "Weekly Q&A Session",
							"publishedAt": "2024-05-03T18:30:00Z",
							"thumbnails": map[string]interface{}{
								"high": map[string]interface{}{"url": "https://i.ytimg.com/vi/vid-2/hq.jpg"},
							},
						},
					},
					{"id": map[string]interface{}{"kind": "youtube#channel"}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	return f, server
}

func setupYouTubeService(t *testing.T, withCache bool) (*YouTubeService, *fakeYouTube) {
	t.Helper()

	fake, server := newFakeYouTube(t)

	var c *cache.Cache
	if withCache {
		mr := testutil.SetupMiniRedis(t)
		c = cache.NewCache(testutil.NewTestRedisClient(t, mr))
	}

	svc := NewYouTubeService(YouTubeConfig{
		APIKey:     "test-api-key",
		HistoryTTL: 5 * time.Minute,
		Endpoint:   server.URL + "/",
	}, staticTokens{}, c)

	return svc, fake
}

func googleSession() *models.Session {
	return &models.Session{UserID: "user-1", Email: "streamer@example.com", Tokens: testutil.TestTokens()}
}

func TestGoLive(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and binds a broadcast", func(t *testing.T) {
		svc, fake := setupYouTubeService(t, false)

		live, err := svc.GoLive(ctx, googleSession(), "")
		require.NoError(t, err)

		assert.Equal(t, "bcast-1", live.BroadcastID)
		assert.Equal(t, "stream-1", live.StreamID)
		assert.Equal(t, "https://www.youtube.com/watch?v=bcast-1", live.WatchURL)
		assert.Equal(t, "rtmp://a.rtmp.youtube.com/live2", live.IngestionAddress)
		assert.Equal(t, "abcd-efgh", live.StreamKey)
		assert.Equal(t, 1, fake.count("/youtube/v3/liveBroadcasts/bind"))
	})

	t.Run("requires youtube tokens", func(t *testing.T) {
		svc, fake := setupYouTubeService(t, false)

		_, err := svc.GoLive(ctx, &models.Session{UserID: "user-1"}, "")
		assert.ErrorIs(t, err, models.ErrNoYouTubeAccess)
		assert.Equal(t, 0, fake.count("/youtube/v3/liveBroadcasts"))
	})

	t.Run("requires api key", func(t *testing.T) {
		svc := NewYouTubeService(YouTubeConfig{}, staticTokens{}, nil)

		_, err := svc.GoLive(ctx, googleSession(), "")
		assert.ErrorIs(t, err, models.ErrConfigMissing)
	})

	t.Run("api errors are wrapped", func(t *testing.T) {
		svc, fake := setupYouTubeService(t, false)
		fake.fail(http.StatusForbidden)

		_, err := svc.GoLive(ctx, googleSession(), "My stream")
		assert.ErrorIs(t, err, models.ErrYouTubeAPI)
	})
}

func TestVideoHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("maps search results", func(t *testing.T) {
		svc, _ := setupYouTubeService(t, false)

		videos, err := svc.VideoHistory(ctx, googleSession())
		require.NoError(t, err)
		require.Len(t, videos, 1)

		assert.Equal(t, "vid-2", videos[0].ID)
		assert.Equal(t, "Weekly Q&A Session", videos[0].Title)
		assert.Equal(t, "https://www.youtube.com/watch?v=vid-2", videos[0].VideoURL)
		assert.Equal(t, "https://i.ytimg.com/vi/vid-2/hq.jpg", videos[0].ThumbnailURL)
		assert.Equal(t, 2024, videos[0].StreamedAt.Year())
	})

	t.Run("caches per user until go live", func(t *testing.T) {
		svc, fake := setupYouTubeService(t, true)
		session := googleSession()

		_, err := svc.VideoHistory(ctx, session)
		require.NoError(t, err)
		_, err = svc.VideoHistory(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, 1, fake.count("/youtube/v3/search"))

		_, err = svc.GoLive(ctx, session, "")
		require.NoError(t, err)

		_, err = svc.VideoHistory(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, 2, fake.count("/youtube/v3/search"))
	})

	t.Run("password session has no access", func(t *testing.T) {
		svc, _ := setupYouTubeService(t, true)

		_, err := svc.VideoHistory(ctx, &models.Session{UserID: "user-2"})
		assert.ErrorIs(t, err, models.ErrNoYouTubeAccess)
	})
}
