package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hongminglow/herodex/internal/http/views"
	"github.com/hongminglow/herodex/internal/session"
)

// base carries what every page handler needs: the renderer and a logger.
type base struct {
	views  *views.Renderer
	logger *slog.Logger
}

func newBase(v *views.Renderer, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{views: v, logger: logger}
}

// page assembles the shared view model and consumes any pending flash messages.
func (b base) page(r *http.Request, title string, data any) views.Page {
	p := views.Page{Title: title, Data: data}
	if sess := session.FromContext(r.Context()); sess != nil {
		p.User = sess.Identity
		p.Flash = sess.PopFlash()
	}
	return p
}

func (b base) render(w http.ResponseWriter, r *http.Request, status int, name string, p views.Page) {
	b.views.Render(w, r, status, name, p)
}

func (b base) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	b.render(w, r, status, views.PageError, b.page(r, http.StatusText(status), views.ErrorData{Status: status, Message: message}))
}

// ServerError is the catch-all 500 page.
func (b base) ServerError(w http.ResponseWriter, r *http.Request) {
	b.renderError(w, r, http.StatusInternalServerError, "Something went wrong!")
}

func flashSuccess(r *http.Request, msg string) {
	if sess := session.FromContext(r.Context()); sess != nil {
		sess.FlashSuccess(msg)
	}
}

func flashError(r *http.Request, msg string) {
	if sess := session.FromContext(r.Context()); sess != nil {
		sess.FlashError(msg)
	}
}

func accountID(r *http.Request) string {
	if sess := session.FromContext(r.Context()); sess.Authenticated() {
		return sess.Identity.ID
	}
	return ""
}
