package services

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ieraasyl/StreamLink/internal/database"
	"github.com/ieraasyl/StreamLink/internal/models"
	"github.com/ieraasyl/StreamLink/internal/testutil"
	"github.com/ieraasyl/StreamLink/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func setupSessionService(t *testing.T) (*SessionService, *testClock, *database.RedisDB, *miniredis.Miniredis) {
	t.Helper()

	mr := testutil.SetupMiniRedis(t)
	redisDB := testutil.NewTestRedisDB(t, mr)
	clock := &testClock{now: time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC)}

	svc := NewSessionService(testutil.TestSecret, config.SessionTTL, redisDB).WithClock(clock.Now)

	return svc, clock, redisDB, mr
}

func TestIssueAndRead(t *testing.T) {
	svc, _, _, _ := setupSessionService(t)
	ctx := context.Background()
	user := testutil.TestUser()

	t.Run("google session carries tokens", func(t *testing.T) {
		value, issued, err := svc.Issue(ctx, SessionInput{
			User:   user,
			Tokens: testutil.TestTokens(),
			Device: "Chrome 120 · Windows 10 · Desktop",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, value)
		assert.Equal(t, 7*24*time.Hour, issued.ExpiresAt.Sub(issued.IssuedAt))

		session := svc.Read(ctx, value)
		require.NotNil(t, session)
		assert.Equal(t, user.ID.String(), session.UserID)
		assert.Equal(t, user.Email, session.Email)
		assert.Equal(t, user.Picture, session.Picture)
		assert.True(t, session.HasYouTubeAccess())
		assert.Equal(t, "1//test-refresh-token", session.Tokens.RefreshToken)
		assert.Equal(t, "Chrome 120 · Windows 10 · Desktop", session.Device)
	})

	t.Run("password session has no tokens", func(t *testing.T) {
		value, _, err := svc.Issue(ctx, SessionInput{User: user})
		require.NoError(t, err)

		session := svc.Read(ctx, value)
		require.NotNil(t, session)
		assert.False(t, session.HasYouTubeAccess())
	})

	t.Run("tokens never appear in the cookie", func(t *testing.T) {
		value, _, err := svc.Issue(ctx, SessionInput{User: user, Tokens: testutil.TestTokens()})
		require.NoError(t, err)

		claims := jwt.MapClaims{}
		_, _, err = jwt.NewParser().ParseUnverified(value, claims)
		require.NoError(t, err)
		assert.NotContains(t, claims, "tokens")
		assert.NotContains(t, value, "test-refresh-token")
	})
}

func TestRead_RejectsBadCookies(t *testing.T) {
	svc, _, _, _ := setupSessionService(t)
	ctx := context.Background()

	value, _, err := svc.Issue(ctx, SessionInput{User: testutil.TestUser()})
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, svc.Read(ctx, ""))
	})

	t.Run("malformed", func(t *testing.T) {
		assert.Nil(t, svc.Read(ctx, "not-a-session"))
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(value, ".")
		require.Len(t, parts, 3)
		parts[1] = strings.ToUpper(parts[1][:1]) + parts[1][1:] + "x"
		assert.Nil(t, svc.Read(ctx, strings.Join(parts, ".")))
	})

	t.Run("signed with another secret", func(t *testing.T) {
		other := NewSessionService([]byte("another-secret-another-secret-00"), config.SessionTTL, testutil.NewTestRedisDB(t, testutil.SetupMiniRedis(t)))
		forged, _, err := other.Issue(ctx, SessionInput{User: testutil.TestUser()})
		require.NoError(t, err)

		assert.Nil(t, svc.Read(ctx, forged))
	})

	t.Run("unsigned token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sid":     "x",
			"user_id": "y",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		assert.Nil(t, svc.Read(ctx, unsigned))
	})
}

func TestRead_Expiry(t *testing.T) {
	svc, clock, _, _ := setupSessionService(t)
	ctx := context.Background()

	value, _, err := svc.Issue(ctx, SessionInput{User: testutil.TestUser()})
	require.NoError(t, err)
	issuedAt := clock.now

	clock.now = issuedAt.Add(6 * 24 * time.Hour)
	assert.NotNil(t, svc.Read(ctx, value), "valid six days after issue")

	clock.now = issuedAt.Add(8 * 24 * time.Hour)
	assert.Nil(t, svc.Read(ctx, value), "expired eight days after issue")
}

func TestRevoke(t *testing.T) {
	svc, _, _, mr := setupSessionService(t)
	ctx := context.Background()

	value, issued, err := svc.Issue(ctx, SessionInput{User: testutil.TestUser(), Tokens: testutil.TestTokens()})
	require.NoError(t, err)
	assert.True(t, mr.Exists("session:"+issued.ID))

	require.NoError(t, svc.Revoke(ctx, value))
	assert.False(t, mr.Exists("session:"+issued.ID))

	assert.Nil(t, svc.Read(ctx, value), "revoked cookie is rejected")

	assert.NoError(t, svc.Revoke(ctx, "garbage"))
}

func TestRead_RecordMustMatch(t *testing.T) {
	svc, _, redisDB, _ := setupSessionService(t)
	ctx := context.Background()

	value, issued, err := svc.Issue(ctx, SessionInput{User: testutil.TestUser()})
	require.NoError(t, err)

	err = redisDB.SaveSessionRecord(ctx, issued.ID, &models.SessionRecord{UserID: "someone-else"}, time.Hour)
	require.NoError(t, err)

	assert.Nil(t, svc.Read(ctx, value))
}

func TestIssue_VaultFailure(t *testing.T) {
	svc, _, _, mr := setupSessionService(t)
	mr.Close()

	value, session, err := svc.Issue(context.Background(), SessionInput{User: testutil.TestUser()})
	assert.Error(t, err)
	assert.Empty(t, value)
	assert.Nil(t, session)
}

func TestRead_VaultFailureKeepsIdentity(t *testing.T) {
	svc, _, _, mr := setupSessionService(t)
	ctx := context.Background()

	value, _, err := svc.Issue(ctx, SessionInput{User: testutil.TestUser(), Tokens: testutil.TestTokens()})
	require.NoError(t, err)

	mr.Close()

	session := svc.Read(ctx, value)
	require.NotNil(t, session)
	assert.Equal(t, "test@example.com", session.Email)
	assert.False(t, session.HasYouTubeAccess())
}

func TestExtractDeviceInfo(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		contains  []string
	}{
		{"chrome desktop", testutil.UserAgents.Chrome, []string{"Chrome", "Windows", "Desktop"}},
		{"safari mac", testutil.UserAgents.Safari, []string{"Safari", "macOS"}},
		{"mobile safari", testutil.UserAgents.MobileSafari, []string{"iOS", "Mobile"}},
		{"empty", testutil.UserAgents.Unknown, []string{"Unknown Device"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ExtractDeviceInfo(tt.userAgent)
			for _, want := range tt.contains {
				assert.Contains(t, info, want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", maxRawUserAgent))

	long := strings.Repeat("é", 150)
	cut := truncateRunes(long, maxRawUserAgent)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, strings.Repeat("é", maxRawUserAgent)+"...", cut)

	exact := strings.Repeat("ü", maxRawUserAgent)
	assert.Equal(t, exact, truncateRunes(exact, maxRawUserAgent))
}
