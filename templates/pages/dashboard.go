package pages

import (
	"context"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/ieraasyl/StreamLink/internal/models"
	"github.com/ieraasyl/StreamLink/templates/components"
	"github.com/ieraasyl/StreamLink/templates/layouts"
)

// DashboardPageData is the signed-in home page.
type DashboardPageData struct {
	Email        string
	Picture      string
	YouTube      bool // Session carries Google tokens
	Videos       []models.Video
	HistoryError string
	Welcome      bool // Arrived from a successful Google sign-in
}

// DashboardPage renders the go-live form and the video history.
func DashboardPage(data DashboardPageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := components.NewHTML(w)
		h.Raw(`<header><div>`)
		if data.Picture != "" {
			h.Raw(`<img`)
			h.URLAttr("src", data.Picture)
			h.Raw(` alt="">`)
		}
		h.Raw(`<strong>`)
		h.Text(data.Email)
		h.Raw(`</strong></div>`)
		h.Render(ctx, components.PostButton("/logout", "Log out", "secondary"))
		h.Raw(`</header><main>`)

		if data.Welcome {
			h.Render(ctx, components.Notice("Signed in successfully! Welcome back, "+data.Email+"!"))
		}

		h.Render(ctx, goLiveSection(data.YouTube))
		h.Render(ctx, videoSection(data))
		h.Raw(`</main>`)

		if data.YouTube {
			h.Raw(goLiveScript)
		}
		return h.Err()
	})

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layouts.Base("Dashboard").Render(templ.WithChildren(ctx, body), w)
	})
}

func goLiveSection(connected bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := components.NewHTML(w)
		h.Raw(`<section class="card"><h2>Start a New Live Stream</h2>`)
		if !connected {
			h.Raw(`<p>Sign in with Google to stream to your YouTube channel.</p>`)
			h.Render(ctx, components.PostButton("/auth/google", "Connect YouTube", "secondary"))
			h.Raw(`</section>`)
			return h.Err()
		}

		h.Raw(`<p>Create a YouTube live broadcast and share the link with your audience.</p>`)
		h.Raw(`<form id="go-live"><label for="title">Title</label>`)
		h.Raw(`<input id="title" name="title" maxlength="100" placeholder="My live stream">`)
		h.Raw(`<p><button type="submit">Go Live</button></p></form>`)
		h.Raw(`<div id="go-live-result" hidden>`)
		h.Render(ctx, components.Notice("Live Stream Created! Share this URL with your audience."))
		h.Raw(`<p><a id="stream-url" target="_blank" rel="noopener"></a></p>`)
		h.Raw(`<p>Ingestion address: <code id="ingestion"></code></p>`)
		h.Raw(`<p>Stream key: <code id="stream-key"></code></p></div>`)
		h.Raw(`<p id="go-live-error" class="error" hidden></p></section>`)
		return h.Err()
	})
}

func videoSection(data DashboardPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := components.NewHTML(w)
		h.Raw(`<section class="card"><h2>Your Videos</h2>`)
		if data.HistoryError != "" {
			h.Render(ctx, components.FieldError(data.HistoryError))
		}

		switch {
		case len(data.Videos) > 0:
			h.Raw(`<div class="videos">`)
			for _, v := range data.Videos {
				h.Render(ctx, videoCard(v))
			}
			h.Raw(`</div>`)
		case data.YouTube:
			h.Raw(`<p>No videos yet. Your streams will appear here.</p>`)
		}

		h.Raw(`</section>`)
		return h.Err()
	})
}

func videoCard(v models.Video) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := components.NewHTML(w)
		h.Raw(`<a`)
		h.URLAttr("href", v.VideoURL)
		h.Raw(` target="_blank" rel="noopener">`)
		if v.ThumbnailURL != "" {
			h.Raw(`<img`)
			h.URLAttr("src", v.ThumbnailURL)
			h.Raw(` alt="">`)
		}
		h.Raw(`<div>`)
		h.Text(v.Title)
		h.Raw(`</div><small>`)
		h.Text(formatDate(v.StreamedAt))
		h.Raw(`</small></a>`)
		return h.Err()
	})
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

const goLiveScript = `<script>
document.getElementById('go-live').addEventListener('submit', async (event) => {
  event.preventDefault();
  const button = event.target.querySelector('button');
  const errorBox = document.getElementById('go-live-error');
  button.disabled = true;
  button.textContent = 'Starting Stream...';
  errorBox.hidden = true;
  try {
    const res = await fetch('/api/youtube/live', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({title: document.getElementById('title').value}),
    });
    const body = await res.json();
    if (!res.ok) throw new Error(body.message || 'Failed to start live stream.');
    const link = document.getElementById('stream-url');
    link.href = body.stream_url;
    link.textContent = body.stream_url;
    document.getElementById('ingestion').textContent = body.ingestion_address || '';
    document.getElementById('stream-key').textContent = body.stream_key || '';
    document.getElementById('go-live-result').hidden = false;
  } catch (err) {
    errorBox.textContent = err.message;
    errorBox.hidden = false;
  } finally {
    button.disabled = false;
    button.textContent = 'Go Live';
  }
});
</script>`
