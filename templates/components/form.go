package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Banner renders an alert box. An empty message renders nothing.
func Banner(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if message == "" {
			return nil
		}
		h := NewHTML(w)
		h.Raw(`<div class="banner" role="alert">`)
		h.Text(message)
		h.Raw(`</div>`)
		return h.Err()
	})
}

// Notice renders a success message.
func Notice(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := NewHTML(w)
		h.Raw(`<div class="notice">`)
		h.Text(message)
		h.Raw(`</div>`)
		return h.Err()
	})
}

// FieldError renders the validation message under an input.
func FieldError(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if message == "" {
			return nil
		}
		h := NewHTML(w)
		h.Raw(`<p class="error">`)
		h.Text(message)
		h.Raw(`</p>`)
		return h.Err()
	})
}

// Input is a labelled form field.
type Input struct {
	ID           string
	Label        string
	Type         string
	Value        string
	Autocomplete string
	MinLength    string
	Error        string
}

// TextInput renders a label, an input and its field error.
func TextInput(in Input) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := NewHTML(w)
		h.Raw(`<label`)
		h.Attr("for", in.ID)
		h.Raw(`>`)
		h.Text(in.Label)
		h.Raw(`</label><input`)
		h.Attr("id", in.ID)
		h.Attr("name", in.ID)
		h.Attr("type", in.Type)
		if in.Value != "" {
			h.Attr("value", in.Value)
		}
		if in.Autocomplete != "" {
			h.Attr("autocomplete", in.Autocomplete)
		}
		if in.MinLength != "" {
			h.Attr("minlength", in.MinLength)
		}
		h.Raw(` required>`)
		h.Render(ctx, FieldError(in.Error))
		return h.Err()
	})
}

// PostButton is a one-button form, used for actions that must not be GETs.
func PostButton(action, label, class string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := NewHTML(w)
		h.Raw(`<form method="post"`)
		h.URLAttr("action", action)
		h.Raw(`><button type="submit"`)
		if class != "" {
			h.Attr("class", class)
		}
		h.Raw(`>`)
		h.Text(label)
		h.Raw(`</button></form>`)
		return h.Err()
	})
}
