// Package pages holds the full pages served by the handlers.
package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/ieraasyl/StreamLink/templates/components"
	"github.com/ieraasyl/StreamLink/templates/layouts"
)

// AuthPageData is shared by the login and register pages.
type AuthPageData struct {
	Email       string
	Notice      string // Error code banner left by the Google flow
	FormError   string
	FieldErrors map[string]string
}

func (d AuthPageData) fieldError(field string) string {
	return d.FieldErrors[field]
}

// LoginPage renders the sign-in form.
func LoginPage(data AuthPageData) templ.Component {
	return authPage(authForm{
		title:        "Sign in",
		heading:      "Welcome back",
		lead:         "Sign in to manage your streams.",
		action:       "/login",
		submit:       "Sign in",
		autocomplete: "current-password",
		altPrompt:    "Don't have an account?",
		altLink:      "/register",
		altLabel:     "Sign up",
	}, data)
}

// RegisterPage renders the sign-up form.
func RegisterPage(data AuthPageData) templ.Component {
	return authPage(authForm{
		title:        "Create account",
		heading:      "Create an account",
		lead:         "Start streaming to YouTube in one click.",
		action:       "/register",
		submit:       "Sign up",
		autocomplete: "new-password",
		minLength:    "8",
		altPrompt:    "Already have an account?",
		altLink:      "/login",
		altLabel:     "Sign in",
	}, data)
}

type authForm struct {
	title, heading, lead string
	action, submit       string
	autocomplete         string
	minLength            string
	altPrompt, altLink   string
	altLabel             string
}

func authPage(form authForm, data AuthPageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := components.NewHTML(w)
		h.Raw(`<main><div class="card narrow"><h1>`)
		h.Text(form.heading)
		h.Raw(`</h1><p>`)
		h.Text(form.lead)
		h.Raw(`</p>`)
		h.Render(ctx, components.Banner(data.Notice))
		h.Render(ctx, components.Banner(data.FormError))

		h.Raw(`<form method="post"`)
		h.URLAttr("action", form.action)
		h.Raw(` novalidate>`)
		h.Render(ctx, components.TextInput(components.Input{
			ID:           "email",
			Label:        "Email",
			Type:         "email",
			Value:        data.Email,
			Autocomplete: "email",
			Error:        data.fieldError("email"),
		}))
		h.Render(ctx, components.TextInput(components.Input{
			ID:           "password",
			Label:        "Password",
			Type:         "password",
			Autocomplete: form.autocomplete,
			MinLength:    form.minLength,
			Error:        data.fieldError("password"),
		}))
		h.Raw(`<p><button type="submit">`)
		h.Text(form.submit)
		h.Raw(`</button></p></form>`)

		h.Render(ctx, components.PostButton("/auth/google", "Continue with Google", "secondary"))

		h.Raw(`<p>`)
		h.Text(form.altPrompt)
		h.Raw(` <a`)
		h.URLAttr("href", form.altLink)
		h.Raw(`>`)
		h.Text(form.altLabel)
		h.Raw(`</a></p></div></main>`)
		return h.Err()
	})

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layouts.Base(form.title).Render(templ.WithChildren(ctx, body), w)
	})
}
