package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/herodex/internal/config"
	"github.com/hongminglow/herodex/internal/logging"
	"github.com/hongminglow/herodex/internal/server"
	"github.com/hongminglow/herodex/internal/session"
	"github.com/hongminglow/herodex/internal/storage/backend"
	"github.com/hongminglow/herodex/internal/superhero"
	"github.com/hongminglow/herodex/internal/telemetry"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Info("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.Setup(ctx, "herodex", cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		logger.Error("init database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	sessions, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		logger.Error("init session store", "backend", cfg.SessionBackend, "error", err)
		os.Exit(1)
	}
	defer closeSessions()

	provider := superhero.NewClient(superhero.Options{
		BaseURL:    cfg.SuperheroBaseURL,
		APIKey:     cfg.SuperheroAPIKey,
		Timeout:    cfg.SuperheroTimeout,
		MaxRetries: uint(cfg.SuperheroMaxRetries),
		Logger:     logger.With("component", "superhero"),
	})

	srv, err := server.New(cfg, server.Deps{
		Store:    store,
		Provider: provider,
		Sessions: sessions,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("init server", "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("HeroDex listening", "addr", cfg.HTTPAddress(), "driver", cfg.DatabaseDriver)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", "error", err)
	}
	if err := shutdownTracing(ctxShutdown); err != nil {
		logger.Warn("flush traces", "error", err)
	}
}

func openSessions(ctx context.Context, cfg config.Config) (session.Store, func(), error) {
	if cfg.SessionBackend == config.SessionRedis {
		store, err := session.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
	return session.NewMemoryStore(), func() {}, nil
}
