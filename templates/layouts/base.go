// Package layouts holds the page shells the pages render into.
package layouts

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/ieraasyl/StreamLink/templates/components"
)

const styles = `
    body { font-family: system-ui, sans-serif; margin: 0; background: #f6f7f9; color: #1b1f24; }
    main { max-width: 960px; margin: 0 auto; padding: 2rem 1rem; }
    .card { background: #fff; border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,.12); padding: 1.5rem; margin-bottom: 1.5rem; }
    .narrow { max-width: 400px; margin: 4rem auto; }
    label { display: block; margin: .75rem 0 .25rem; font-weight: 600; }
    input { width: 100%; box-sizing: border-box; padding: .5rem; border: 1px solid #c9ced6; border-radius: 4px; }
    button, .button { display: inline-block; padding: .6rem 1.2rem; border: 0; border-radius: 4px; background: #d93025; color: #fff; font-weight: 600; cursor: pointer; text-decoration: none; }
    .secondary { background: #fff; color: #1b1f24; border: 1px solid #c9ced6; }
    .error { color: #b3261e; font-size: .9rem; }
    .banner { background: #fdecea; color: #b3261e; padding: .75rem; border-radius: 4px; margin-bottom: 1rem; }
    .notice { background: #e6f4ea; color: #137333; padding: .75rem; border-radius: 4px; margin-bottom: 1rem; }
    header { display: flex; justify-content: space-between; align-items: center; background: #fff; padding: .75rem 1.5rem; box-shadow: 0 1px 2px rgba(0,0,0,.08); }
    header img { width: 32px; height: 32px; border-radius: 50%; vertical-align: middle; margin-right: .5rem; }
    .videos { display: grid; grid-template-columns: repeat(auto-fill, minmax(260px, 1fr)); gap: 1rem; }
    .videos img { width: 100%; border-radius: 4px; }
`

// Base is the HTML document shell. The page body is passed as children:
//
//	layouts.Base("Sign in").Render(templ.WithChildren(ctx, body), w)
func Base(title string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := components.NewHTML(w)
		h.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		if title != "" {
			h.Text(title + " · ")
		}
		h.Raw(`StreamLink</title><style>`)
		h.Raw(styles)
		h.Raw(`</style></head><body>`)
		h.Render(ctx, templ.GetChildren(ctx))
		h.Raw(`</body></html>`)
		return h.Err()
	})
}
