package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hongminglow/herodex/internal/favorites"
	"github.com/hongminglow/herodex/internal/heroes"
	"github.com/hongminglow/herodex/internal/http/respond"
	"github.com/hongminglow/herodex/internal/http/views"
	"github.com/hongminglow/herodex/internal/middleware"
	"github.com/hongminglow/herodex/internal/models/dto"
)

// FavoritesHandler owns the toggle and reason actions plus the profile and ranking pages.
type FavoritesHandler struct {
	base
	favorites *favorites.Service
}

// NewFavoritesHandler constructs the handler.
func NewFavoritesHandler(favs *favorites.Service, v *views.Renderer, logger *slog.Logger) *FavoritesHandler {
	return &FavoritesHandler{base: newBase(v, logger), favorites: favs}
}

// Register wires the handler into a ServeMux.
func (h *FavoritesHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /favorites", h.handleTop)
	mux.Handle("GET /profile", middleware.RequireLogin(http.HandlerFunc(h.handleProfile)))
	mux.Handle("POST /{id}/favorite", middleware.RequireIdentity(http.HandlerFunc(h.handleToggle)))
	mux.Handle("POST /profile/favorite/reason", middleware.RequireIdentity(http.HandlerFunc(h.handleReason)))
	mux.Handle("POST /profile/favorite/{id}", middleware.RequireIdentity(http.HandlerFunc(h.handleProfileToggle)))
}

func (h *FavoritesHandler) handleTop(w http.ResponseWriter, r *http.Request) {
	ranked, err := h.favorites.Top(r.Context(), favorites.DefaultTopLimit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "top favorites", "error", err)
		h.ServerError(w, r)
		return
	}
	h.render(w, r, http.StatusOK, views.PageFavorites, h.page(r, "Top favorites", views.TopData{Ranked: ranked}))
}

func (h *FavoritesHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	favs, err := h.favorites.List(r.Context(), accountID(r))
	if err != nil {
		if errors.Is(err, favorites.ErrUnauthorized) {
			http.Redirect(w, r, "/auth/login", http.StatusFound)
			return
		}
		h.logger.ErrorContext(r.Context(), "list favorites", "error", err)
		h.ServerError(w, r)
		return
	}
	h.render(w, r, http.StatusOK, views.PageProfile, h.page(r, "Profile", views.ProfileData{Favorites: favs}))
}

func (h *FavoritesHandler) handleToggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	req := dto.FavoriteRequestFromForm(r)
	target := "/" + id
	switch {
	case req.FromProfile:
		target = "/profile"
	case req.FromHome:
		target = "/"
	}
	h.toggle(w, r, id, req.Reason, target)
}

func (h *FavoritesHandler) handleProfileToggle(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, r.PathValue("id"), "", "/profile")
}

func (h *FavoritesHandler) toggle(w http.ResponseWriter, r *http.Request, heroID, reason, target string) {
	if !isHeroID(heroID) {
		flashError(r, "Hero not found")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	res, err := h.favorites.Toggle(r.Context(), accountID(r), heroID, reason)
	switch {
	case err == nil:
		if res.Added {
			flashSuccess(r, "Added "+res.Hero.Name+" to your favorites")
		} else {
			flashSuccess(r, "Removed "+res.Hero.Name+" from your favorites")
		}
	case errors.Is(err, favorites.ErrUnauthorized):
		respond.Error(w, http.StatusUnauthorized, "You must be logged in to do that")
		return
	case errors.Is(err, heroes.ErrNotFound):
		flashError(r, "Hero not found")
	case errors.Is(err, heroes.ErrProvider):
		h.logger.WarnContext(r.Context(), "toggle favorite: provider", "hero_id", heroID, "error", err)
		flashError(r, "Could not reach the hero API. Please try again.")
	default:
		h.logger.ErrorContext(r.Context(), "toggle favorite", "hero_id", heroID, "error", err)
		flashError(r, "Failed to update favorites")
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *FavoritesHandler) handleReason(w http.ResponseWriter, r *http.Request) {
	req := dto.ReasonRequestFromForm(r)
	updated, err := h.favorites.UpdateReason(r.Context(), accountID(r), req.HeroID, req.Reason)
	switch {
	case err == nil:
		if updated {
			flashSuccess(r, "Reason updated")
		}
	case errors.Is(err, favorites.ErrUnauthorized):
		respond.Error(w, http.StatusUnauthorized, "You must be logged in to do that")
		return
	default:
		h.logger.ErrorContext(r.Context(), "update favorite reason", "hero_id", req.HeroID, "error", err)
		flashError(r, "Failed to update reason")
	}
	http.Redirect(w, r, "/profile", http.StatusFound)
}
