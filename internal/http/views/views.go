// Package views renders the server-side HTML pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/hongminglow/herodex/internal/favorites"
	"github.com/hongminglow/herodex/internal/heroes"
	"github.com/hongminglow/herodex/internal/models"
	"github.com/hongminglow/herodex/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageIndex     = "index"
	PageHero      = "hero"
	PageFavorites = "favorites"
	PageProfile   = "profile"
	PageLogin     = "login"
	PageRegister  = "register"
	PageError     = "error"
)

var pageNames = []string{PageIndex, PageHero, PageFavorites, PageProfile, PageLogin, PageRegister, PageError}

// Page is what every template receives. Data holds the page-specific view model.
type Page struct {
	Title string
	Query string
	User  *models.Identity
	Flash session.Flash
	Data  any
}

// HomeData backs the listing and the search results.
type HomeData struct {
	Heroes    []models.Hero
	Favorited map[string]bool
	Query     string
	Searching bool
	Listing   heroes.Listing
	PrevPage  int
	NextPage  int
}

// HeroData backs the detail page.
type HeroData struct {
	Hero      models.Hero
	Favorited bool
	Reason    string
}

// TopData backs the community ranking.
type TopData struct {
	Ranked []favorites.Ranked
}

// ProfileData backs the user's favorites page.
type ProfileData struct {
	Favorites []favorites.Favorite
}

// FormData re-renders a form with the submitted values and a message.
type FormData struct {
	Values map[string]string
	Error  string
}

// ErrorData backs the error page.
type ErrorData struct {
	Status  int
	Message string
}

var funcs = template.FuncMap{
	"join":  strings.Join,
	"flash": flashHTML,
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// New parses the embedded templates.
func New(logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		layout := t.Lookup("layout")
		if layout == nil {
			return nil, fmt.Errorf("%s template: layout not defined", name)
		}
		pages[name] = layout
	}
	return &Renderer{pages: pages, logger: logger}, nil
}

// Component returns the page as a templ component.
func (r *Renderer) Component(name string, page Page) (templ.Component, error) {
	t, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", name)
	}
	return templ.FromGoHTML(t, page), nil
}

// Render writes the page with status. The page is rendered into a buffer first so a
// template failure turns into a plain 500 instead of a half-written document.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name string, page Page) {
	component, err := r.Component(name, page)
	if err != nil {
		r.fail(w, req, name, err)
		return
	}
	var buf bytes.Buffer
	if err := component.Render(req.Context(), &buf); err != nil {
		r.fail(w, req, name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.DebugContext(req.Context(), "write page", "page", name, "error", err)
	}
}

func (r *Renderer) fail(w http.ResponseWriter, req *http.Request, name string, err error) {
	r.logger.ErrorContext(req.Context(), "render page", "page", name, "error", err)
	http.Error(w, "Something went wrong!", http.StatusInternalServerError)
}
