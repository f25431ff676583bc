package pages

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/ieraasyl/StreamLink/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestLoginPage(t *testing.T) {
	html := renderString(t, LoginPage(AuthPageData{
		Email:       `"><script>alert(1)</script>`,
		Notice:      "Google sign-in failed. Please try again.",
		FieldErrors: map[string]string{"password": "Password is required"},
	}))

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "<title>Sign in · StreamLink</title>")
	assert.Contains(t, html, `action="/login"`)
	assert.Contains(t, html, `action="/auth/google"`)
	assert.Contains(t, html, "Google sign-in failed. Please try again.")
	assert.Contains(t, html, `<p class="error">Password is required</p>`)
	assert.Contains(t, html, `autocomplete="current-password"`)
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestRegisterPage(t *testing.T) {
	html := renderString(t, RegisterPage(AuthPageData{FormError: "User with this email already exists"}))

	assert.Contains(t, html, `action="/register"`)
	assert.Contains(t, html, `minlength="8"`)
	assert.Contains(t, html, `role="alert">User with this email already exists</div>`)
	assert.Contains(t, html, `href="/login"`)
	assert.NotContains(t, html, `class="error"`)
}

func TestDashboardPage(t *testing.T) {
	t.Run("connected account", func(t *testing.T) {
		html := renderString(t, DashboardPage(DashboardPageData{
			Email:   "streamer@example.com",
			Picture: "https://lh3.googleusercontent.com/a/photo.jpg",
			YouTube: true,
			Welcome: true,
			Videos: []models.Video{{
				Title:        "Weekly Q&A Session",
				VideoURL:     "https://www.youtube.com/watch?v=vid-2",
				ThumbnailURL: "https://i.ytimg.com/vi/vid-2/hq.jpg",
				StreamedAt:   time.Date(2024, 5, 3, 18, 30, 0, 0, time.UTC),
			}},
		}))

		assert.Contains(t, html, "Signed in successfully! Welcome back, streamer@example.com!")
		assert.Contains(t, html, `src="https://lh3.googleusercontent.com/a/photo.jpg"`)
		assert.Contains(t, html, `id="go-live"`)
		assert.Contains(t, html, "Weekly Q&amp;A Session")
		assert.Contains(t, html, "May 3, 2024")
		assert.Contains(t, html, "/api/youtube/live")
		assert.Contains(t, html, `action="/logout"`)
	})

	t.Run("password account", func(t *testing.T) {
		html := renderString(t, DashboardPage(DashboardPageData{Email: "user@example.com"}))

		assert.Contains(t, html, "Connect YouTube")
		assert.NotContains(t, html, `id="go-live"`)
		assert.NotContains(t, html, "<script>")
		assert.NotContains(t, html, "No videos yet")
	})

	t.Run("unsafe urls are neutralised", func(t *testing.T) {
		html := renderString(t, DashboardPage(DashboardPageData{
			Email:   "user@example.com",
			YouTube: true,
			Videos:  []models.Video{{Title: "x", VideoURL: "javascript:alert(1)"}},
		}))

		assert.NotContains(t, html, "javascript:alert")
		assert.Contains(t, html, "about:invalid")
	})
}
