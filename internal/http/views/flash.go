package views

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/hongminglow/herodex/internal/session"
)

// FlashMessages renders the pending success and error banners. An empty flash renders nothing.
func FlashMessages(f session.Flash) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		for _, m := range []struct{ class, text string }{
			{"success", f.Success},
			{"error", f.Error},
		} {
			if m.text == "" {
				continue
			}
			if _, err := io.WriteString(w, `<div class="flash `+m.class+`" role="status">`+templ.EscapeString(m.text)+`</div>`); err != nil {
				return err
			}
		}
		return nil
	})
}

// flashHTML lets the layout template embed FlashMessages.
func flashHTML(f session.Flash) (template.HTML, error) {
	return templ.ToGoHTML(context.Background(), FlashMessages(f))
}
