// Package components holds small templ components shared by the pages.
package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// HTML writes markup for a component and keeps the first write error, the
// way generated templ code threads its error through every write.
type HTML struct {
	w   io.Writer
	err error
}

// NewHTML wraps w.
func NewHTML(w io.Writer) *HTML {
	return &HTML{w: w}
}

// Raw writes trusted markup as is.
func (h *HTML) Raw(markup string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, markup)
}

// Text writes s as escaped text.
func (h *HTML) Text(s string) {
	h.Raw(templ.EscapeString(s))
}

// Attr writes ` name="value"` with value escaped.
func (h *HTML) Attr(name, value string) {
	h.Raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// URLAttr writes a URL attribute, replacing unsafe schemes such as
// javascript: with about:invalid.
func (h *HTML) URLAttr(name, url string) {
	h.Attr(name, string(templ.URL(url)))
}

// Render renders a child component.
func (h *HTML) Render(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// Err returns the first error seen.
func (h *HTML) Err() error {
	return h.err
}
