package handlers

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/ieraasyl/StreamLink/pkg/utils"
	"github.com/rs/zerolog/log"
)

// render serves a page component with the given status. templ.Handler
// renders into a buffer first, so a failed render never leaves a
// half-written page.
func render(w http.ResponseWriter, r *http.Request, status int, page templ.Component) {
	w.Header().Set("Cache-Control", "no-store")
	templ.Handler(page,
		templ.WithStatus(status),
		templ.WithErrorHandler(renderFailed),
	).ServeHTTP(w, r)
}

func renderFailed(r *http.Request, err error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		log.Error().
			Err(err).
			Str("path", r.URL.Path).
			Str("request_id", utils.GetRequestID(r.Context())).
			Msg("Failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	})
}
