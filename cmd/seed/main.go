// Command seed bulk-loads the hero store from the provider.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/herodex/internal/config"
	"github.com/hongminglow/herodex/internal/heroes"
	"github.com/hongminglow/herodex/internal/logging"
	"github.com/hongminglow/herodex/internal/storage/backend"
	"github.com/hongminglow/herodex/internal/superhero"
)

func main() {
	var (
		reset   = flag.Bool("reset", true, "delete all cached heroes before seeding")
		popular = flag.Bool("popular", false, "only seed the popular hero ids")
		total   = flag.Int("total", superhero.MaxHeroID, "seed ids 1..total")
		batch   = flag.Int("batch", 10, "heroes fetched concurrently per batch")
		pause   = flag.Duration("pause", 2*time.Second, "pause between batches")
	)
	flag.Parse()

	if err := run(*reset, *popular, *total, *batch, *pause); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run(reset, popular bool, total, batch int, pause time.Duration) error {
	_ = godotenv.Load()
	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	if err := cfg.ValidateStorage(); err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer store.Close()

	provider := superhero.NewClient(superhero.Options{
		BaseURL:    cfg.SuperheroBaseURL,
		APIKey:     cfg.SuperheroAPIKey,
		Timeout:    cfg.SuperheroTimeout,
		MaxRetries: uint(cfg.SuperheroMaxRetries),
		Logger:     logger,
	})

	opts := heroes.SeedOptions{Total: total, BatchSize: batch, Pause: pause, Reset: reset}
	if popular {
		opts.IDs = superhero.PopularHeroIDs
	}

	started := time.Now()
	report, err := heroes.NewSeeder(store, provider, logger).Run(ctx, opts)
	fmt.Printf("Seeding finished in %s: %d saved, %d failed\n", time.Since(started).Truncate(time.Second), report.Saved, report.Failed)
	return err
}
