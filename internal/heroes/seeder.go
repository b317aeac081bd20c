package heroes

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hongminglow/herodex/internal/storage"
)

// SeedOptions controls a bulk seeding run.
type SeedOptions struct {
	// IDs to fetch. When empty, ids 1..Total are used.
	IDs       []string
	Total     int
	BatchSize int
	// Pause between batches, to stay under the provider rate limit.
	Pause time.Duration
	// Reset empties the hero store before seeding.
	Reset bool
}

// SeedReport summarises a seeding run.
type SeedReport struct {
	Saved  int
	Failed int
}

// Seeder bulk-loads the hero store from the provider. Individual failures are counted,
// never fatal.
type Seeder struct {
	store    storage.HeroStore
	provider Provider
	logger   *slog.Logger
}

func NewSeeder(store storage.HeroStore, provider Provider, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{store: store, provider: provider, logger: logger}
}

// Run fetches the requested ids batch by batch. Only store resets and context
// cancellation abort the run.
func (s *Seeder) Run(ctx context.Context, opts SeedOptions) (SeedReport, error) {
	ids := opts.IDs
	if len(ids) == 0 {
		for i := 1; i <= opts.Total; i++ {
			ids = append(ids, strconv.Itoa(i))
		}
	}
	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = 10
	}

	if opts.Reset {
		if err := s.store.DeleteAllHeroes(ctx); err != nil {
			return SeedReport{}, err
		}
		s.logger.InfoContext(ctx, "cleared existing hero data")
	}

	var saved, failed atomic.Int64
	batches := (len(ids) + batchSize - 1) / batchSize
	for b := 0; b < batches; b++ {
		start := b * batchSize
		end := min(start+batchSize, len(ids))
		s.logger.InfoContext(ctx, "processing batch", "batch", b+1, "of", batches, "from", ids[start], "to", ids[end-1])

		var g errgroup.Group
		for _, id := range ids[start:end] {
			g.Go(func() error {
				hero, err := s.provider.Hero(ctx, id)
				if err != nil {
					failed.Add(1)
					s.logger.WarnContext(ctx, "fetch hero failed", "hero_id", id, "error", err)
					return nil
				}
				if _, err := s.store.SaveHero(ctx, hero); err != nil {
					failed.Add(1)
					s.logger.WarnContext(ctx, "save hero failed", "hero_id", id, "name", hero.Name, "error", err)
					return nil
				}
				saved.Add(1)
				s.logger.DebugContext(ctx, "saved hero", "hero_id", hero.ID, "name", hero.Name)
				return nil
			})
		}
		_ = g.Wait()

		if b < batches-1 && opts.Pause > 0 {
			select {
			case <-ctx.Done():
				return SeedReport{Saved: int(saved.Load()), Failed: int(failed.Load())}, ctx.Err()
			case <-time.After(opts.Pause):
			}
		}
	}

	return SeedReport{Saved: int(saved.Load()), Failed: int(failed.Load())}, nil
}
