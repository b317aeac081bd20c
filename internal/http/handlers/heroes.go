package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hongminglow/herodex/internal/favorites"
	"github.com/hongminglow/herodex/internal/heroes"
	"github.com/hongminglow/herodex/internal/http/views"
	"github.com/hongminglow/herodex/internal/models"
)

// HeroHandler serves the listing, search and detail pages.
type HeroHandler struct {
	base
	catalog   *heroes.Catalog
	favorites *favorites.Service
	pageSize  int
}

// NewHeroHandler constructs the handler.
func NewHeroHandler(catalog *heroes.Catalog, favs *favorites.Service, v *views.Renderer, pageSize int, logger *slog.Logger) *HeroHandler {
	if pageSize < 1 {
		pageSize = heroes.DefaultPageSize
	}
	return &HeroHandler{base: newBase(v, logger), catalog: catalog, favorites: favs, pageSize: pageSize}
}

// Register wires the handler into a ServeMux.
func (h *HeroHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /search", h.handleSearch)
	mux.HandleFunc("GET /{id}", h.handleHero)
}

func (h *HeroHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	listing, err := h.catalog.Page(r.Context(), page, h.pageSize)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list heroes", "page", page, "error", err)
		h.ServerError(w, r)
		return
	}

	p := h.page(r, "Heroes", views.HomeData{
		Heroes:    listing.Heroes,
		Favorited: h.favorited(r),
		Listing:   listing,
		PrevPage:  listing.Page - 1,
		NextPage:  listing.Page + 1,
	})
	if listing.ProviderFailed {
		p.Flash.Error = "Could not load heroes from the hero API. Please try again later."
	}
	h.render(w, r, http.StatusOK, views.PageIndex, p)
}

func (h *HeroHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	results, err := h.catalog.Search(r.Context(), query)
	var providerFailed bool
	if err != nil {
		if !errors.Is(err, heroes.ErrProvider) {
			h.logger.ErrorContext(r.Context(), "search heroes", "query", query, "error", err)
			h.ServerError(w, r)
			return
		}
		h.logger.WarnContext(r.Context(), "search provider failed", "query", query, "error", err)
		providerFailed = true
		results = []models.Hero{}
	}

	p := h.page(r, "Search: "+query, views.HomeData{
		Heroes:    results,
		Favorited: h.favorited(r),
		Query:     query,
		Searching: true,
	})
	p.Query = query
	if providerFailed {
		p.Flash.Error = "Search failed because the hero API is unavailable."
	}
	h.render(w, r, http.StatusOK, views.PageIndex, p)
}

func (h *HeroHandler) handleHero(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !isHeroID(id) {
		h.renderError(w, r, http.StatusNotFound, "Superhero not found")
		return
	}
	hero, err := h.catalog.Hero(r.Context(), id)
	if err != nil {
		if errors.Is(err, heroes.ErrNotFound) || errors.Is(err, heroes.ErrProvider) {
			h.logger.InfoContext(r.Context(), "hero lookup failed", "hero_id", id, "error", err)
			h.renderError(w, r, http.StatusNotFound, "Superhero not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "load hero", "hero_id", id, "error", err)
		h.ServerError(w, r)
		return
	}

	data := views.HeroData{Hero: hero}
	if uid := accountID(r); uid != "" {
		entry, ok, err := h.favorites.Entry(r.Context(), uid, hero.ID)
		if err != nil {
			h.logger.WarnContext(r.Context(), "load favorite state", "hero_id", hero.ID, "error", err)
		}
		data.Favorited, data.Reason = ok, entry.Reason
	}
	h.render(w, r, http.StatusOK, views.PageHero, h.page(r, hero.Name, data))
}

func (h *HeroHandler) favorited(r *http.Request) map[string]bool {
	set, err := h.favorites.Favorited(r.Context(), accountID(r))
	if err != nil {
		h.logger.WarnContext(r.Context(), "load favorite set", "error", err)
		return map[string]bool{}
	}
	return set
}

func isHeroID(id string) bool {
	if id == "" || len(id) > 6 {
		return false
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
