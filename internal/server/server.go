package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hongminglow/herodex/internal/accounts"
	"github.com/hongminglow/herodex/internal/auth"
	"github.com/hongminglow/herodex/internal/config"
	"github.com/hongminglow/herodex/internal/favorites"
	"github.com/hongminglow/herodex/internal/heroes"
	"github.com/hongminglow/herodex/internal/http/handlers"
	"github.com/hongminglow/herodex/internal/http/views"
	"github.com/hongminglow/herodex/internal/middleware"
	"github.com/hongminglow/herodex/internal/session"
	"github.com/hongminglow/herodex/internal/storage"
)

// Deps are the long-lived collaborators built by main.
type Deps struct {
	Store    storage.Store
	Provider heroes.Provider
	Sessions session.Store
	Logger   *slog.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) (*Server, error) {
	handler, err := NewHandler(cfg, deps)
	if err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Cold-start seeding and provider fallbacks can take a while.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{inner: httpServer}, nil
}

// NewHandler builds the full middleware chain and route table.
func NewHandler(cfg config.Config, deps Deps) (http.Handler, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	renderer, err := views.New(logger)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	catalog := heroes.NewCatalog(deps.Store, deps.Provider, logger.With("component", "heroes"))
	favs := favorites.NewService(deps.Store, deps.Store, catalog, logger.With("component", "favorites"))
	accts := accounts.NewService(deps.Store, logger.With("component", "accounts"))
	tokens := auth.NewTokenManager(cfg.SessionSecret, cfg.SessionIssuer, cfg.SessionTTL)
	sessions := session.NewManager(deps.Sessions, tokens, cfg.CookieSecure, logger.With("component", "session"))

	mux := http.NewServeMux()
	health := handlers.NewHealthHandler(time.Now(), deps.Store)
	health.Register(mux)
	authHandler := handlers.NewAuthHandler(accts, sessions, renderer, logger)
	authHandler.Register(mux)
	favHandler := handlers.NewFavoritesHandler(favs, renderer, logger)
	favHandler.Register(mux)
	heroHandler := handlers.NewHeroHandler(catalog, favs, renderer, cfg.PageSize, logger)
	heroHandler.Register(mux)

	return middleware.Chain(mux,
		middleware.Logging(logger),
		middleware.Sessions(sessions, logger),
		middleware.Recover(logger, heroHandler.ServerError),
	), nil
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
