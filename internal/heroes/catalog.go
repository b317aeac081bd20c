// Package heroes implements the hero catalog: paginated listing with a cold-start seed,
// single-hero lookup and search, all cache-through-fetch over the hero store.
package heroes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hongminglow/herodex/internal/models"
	"github.com/hongminglow/herodex/internal/storage"
	"github.com/hongminglow/herodex/internal/superhero"
)

// DefaultPageSize is the listing page size.
const DefaultPageSize = 20

// SearchLimit caps search results.
const SearchLimit = 20

var (
	// ErrNotFound means neither the cache nor the provider knows the hero.
	ErrNotFound = errors.New("hero not found")
	// ErrProvider means the provider could not be reached or answered garbage.
	ErrProvider = errors.New("hero provider unavailable")
	// ErrEmptyQuery is returned by Search for a blank query.
	ErrEmptyQuery = errors.New("empty search query")
)

// Provider is the external hero source.
type Provider interface {
	Hero(ctx context.Context, id string) (models.Hero, error)
	Search(ctx context.Context, name string) ([]models.Hero, error)
}

// Listing is one page of heroes plus the pagination math for it.
type Listing struct {
	Heroes     []models.Hero
	Page       int
	PageSize   int
	Total      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
	// ProviderFailed is set when the cold-start seed could not reach the provider.
	ProviderFailed bool
}

// Catalog serves heroes from the store, falling back to the provider on a miss.
type Catalog struct {
	store    storage.HeroStore
	provider Provider
	logger   *slog.Logger
	maxID    int
	pick     func(n, max int) []int
}

// NewCatalog builds a catalog over store and provider.
func NewCatalog(store storage.HeroStore, provider Provider, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		store:    store,
		provider: provider,
		logger:   logger,
		maxID:    superhero.MaxHeroID,
		pick:     distinctRandom,
	}
}

// Page returns heroes sorted by name. When the store holds no hero at all it is seeded with
// pageSize random provider heroes first and those are served as page 1; a non-empty store is
// never backfilled. Pages past the end are clamped to the last page.
func (c *Catalog) Page(ctx context.Context, page, pageSize int) (Listing, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	total, err := c.store.CountHeroes(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("count heroes: %w", err)
	}
	if total == 0 {
		if err := c.seedRandom(ctx, pageSize); err != nil {
			if errors.Is(err, ErrProvider) || errors.Is(err, ErrNotFound) {
				c.logger.WarnContext(ctx, "cold-start seed failed", "error", err)
				return Listing{Heroes: []models.Hero{}, Page: page, PageSize: pageSize, ProviderFailed: true}, nil
			}
			return Listing{}, err
		}
		if total, err = c.store.CountHeroes(ctx); err != nil {
			return Listing{}, fmt.Errorf("count heroes: %w", err)
		}
		// the freshly seeded heroes are the page, whatever was asked for
		page = 1
	}

	if last := max((total+pageSize-1)/pageSize, 1); page > last {
		page = last
	}

	heroes, err := c.store.ListHeroes(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return Listing{}, fmt.Errorf("list heroes: %w", err)
	}
	return paginate(heroes, page, pageSize, total), nil
}

func paginate(heroes []models.Hero, page, pageSize, total int) Listing {
	totalPages := (total + pageSize - 1) / pageSize
	return Listing{
		Heroes:     heroes,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// seedRandom fetches n distinct random heroes concurrently and persists each one.
// The first provider failure cancels the remaining fetches.
func (c *Catalog) seedRandom(ctx context.Context, n int) error {
	ids := c.pick(n, c.maxID)
	c.logger.InfoContext(ctx, "hero store empty, seeding from provider", "count", len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for _, n := range ids {
		id := strconv.Itoa(n)
		g.Go(func() error {
			_, err := c.fetchAndSave(gctx, id)
			return err
		})
	}
	return g.Wait()
}

// Hero returns the cached hero, fetching and persisting it on a miss.
func (c *Catalog) Hero(ctx context.Context, id string) (models.Hero, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Hero{}, ErrNotFound
	}
	hero, err := c.store.FindHero(ctx, id)
	if err == nil {
		return hero, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.Hero{}, fmt.Errorf("find hero %s: %w", id, err)
	}
	return c.fetchAndSave(ctx, id)
}

func (c *Catalog) fetchAndSave(ctx context.Context, id string) (models.Hero, error) {
	hero, err := c.provider.Hero(ctx, id)
	if err != nil {
		return models.Hero{}, classify(err)
	}
	saved, err := c.store.SaveHero(ctx, hero)
	if err != nil {
		return models.Hero{}, fmt.Errorf("save hero %s: %w", hero.ID, err)
	}
	return saved, nil
}

// Search matches query against names and full names in the cache. Only when the cache has
// no match at all is the provider asked; every provider result is persisted.
func (c *Catalog) Search(ctx context.Context, query string) ([]models.Hero, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	cached, err := c.store.SearchHeroes(ctx, query, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search heroes: %w", err)
	}
	if len(cached) > 0 {
		return cached, nil
	}

	found, err := c.provider.Search(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]models.Hero, 0, min(len(found), SearchLimit))
	for _, hero := range found {
		saved, err := c.store.SaveHero(ctx, hero)
		if err != nil {
			return nil, fmt.Errorf("save hero %s: %w", hero.ID, err)
		}
		if len(out) < SearchLimit {
			out = append(out, saved)
		}
	}
	return out, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, superhero.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrProvider, err)
	default:
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
}

// distinctRandom picks n distinct ids in [1, max].
func distinctRandom(n, max int) []int {
	if n > max {
		n = max
	}
	perm := rand.Perm(max)[:n]
	for i := range perm {
		perm[i]++
	}
	return perm
}
