package heroes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/herodex/internal/models"
	"github.com/hongminglow/herodex/internal/storage/memory"
	"github.com/hongminglow/herodex/internal/superhero"
)

type fakeProvider struct {
	mu          sync.Mutex
	heroCalls   map[string]int
	searchCalls int
	heroErr     error
	failIDs     map[string]error
	results     []models.Hero
	searchErr   error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{heroCalls: make(map[string]int), failIDs: make(map[string]error)}
}

func (f *fakeProvider) Hero(_ context.Context, id string) (models.Hero, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heroCalls[id]++
	if f.heroErr != nil {
		return models.Hero{}, f.heroErr
	}
	if err, ok := f.failIDs[id]; ok {
		return models.Hero{}, err
	}
	return testHero(id), nil
}

func (f *fakeProvider) Search(_ context.Context, _ string) ([]models.Hero, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	return f.results, f.searchErr
}

func (f *fakeProvider) totalHeroCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.heroCalls {
		n += c
	}
	return n
}

func testHero(id string) models.Hero {
	return models.Hero{
		ID:        id,
		Name:      "Hero " + id,
		Image:     "https://img.example/" + id + ".jpg",
		Biography: models.Biography{FullName: "Person " + id},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCatalog(t *testing.T) (*Catalog, *memory.Store, *fakeProvider) {
	t.Helper()
	store := memory.NewStore()
	provider := newFakeProvider()
	return NewCatalog(store, provider, quietLogger()), store, provider
}

func seedStore(t *testing.T, store *memory.Store, names ...string) {
	t.Helper()
	for i, name := range names {
		hero := testHero(fmt.Sprint(i + 1))
		hero.Name = name
		_, err := store.SaveHero(context.Background(), hero)
		require.NoError(t, err)
	}
}

func TestHeroCachesProviderResult(t *testing.T) {
	catalog, _, provider := newCatalog(t)
	ctx := context.Background()

	first, err := catalog.Hero(ctx, "69")
	require.NoError(t, err)
	second, err := catalog.Hero(ctx, "69")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.heroCalls["69"])
}

func TestHeroNotFoundIsDistinctFromProviderFailure(t *testing.T) {
	catalog, store, provider := newCatalog(t)
	ctx := context.Background()

	provider.failIDs["999"] = fmt.Errorf("%w: invalid id", superhero.ErrNotFound)
	provider.failIDs["500"] = fmt.Errorf("%w: HTTP 502", superhero.ErrProvider)

	_, err := catalog.Hero(ctx, "999")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrProvider)

	_, err = catalog.Hero(ctx, "500")
	assert.ErrorIs(t, err, ErrProvider)
	assert.NotErrorIs(t, err, ErrNotFound)

	n, err := store.CountHeroes(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPageColdStartSeedsOnce(t *testing.T) {
	catalog, store, provider := newCatalog(t)
	ctx := context.Background()

	first, err := catalog.Page(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, first.Heroes, 20)
	assert.False(t, first.ProviderFailed)
	assert.Equal(t, 20, provider.totalHeroCalls())

	n, err := store.CountHeroes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	second, err := catalog.Page(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, first.Heroes, second.Heroes)
	assert.Equal(t, 20, provider.totalHeroCalls(), "second page load must not hit the provider")
}

func TestPageColdStartServesSeededHeroesOnAnyPage(t *testing.T) {
	catalog, _, provider := newCatalog(t)

	listing, err := catalog.Page(context.Background(), 3, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, provider.totalHeroCalls())
	assert.Len(t, listing.Heroes, 20)
	assert.Equal(t, 1, listing.Page)
	assert.False(t, listing.HasPrev)
	assert.False(t, listing.HasNext)
}

type offsetRecorder struct {
	*memory.Store
	offsets []int
}

func (o *offsetRecorder) ListHeroes(ctx context.Context, offset, limit int) ([]models.Hero, error) {
	o.offsets = append(o.offsets, offset)
	return o.Store.ListHeroes(ctx, offset, limit)
}

func TestPagePastTheEndClampsToLastPage(t *testing.T) {
	store := memory.NewStore()
	seedStore(t, store, "Storm", "Batman", "Aquaman")
	rec := &offsetRecorder{Store: store}
	catalog := NewCatalog(rec, newFakeProvider(), quietLogger())
	ctx := context.Background()

	listing, err := catalog.Page(ctx, 461168601842738792, 20)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, rec.offsets)
	assert.Equal(t, 1, listing.Page)
	assert.False(t, listing.HasPrev)
	assert.Len(t, listing.Heroes, 3)

	listing, err = catalog.Page(ctx, 9, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, listing.Page)
	assert.Equal(t, []string{"Storm"}, names(listing.Heroes))
	assert.Equal(t, []int{0, 2}, rec.offsets)
}

func TestPageColdStartProviderFailureReturnsEmptyFlaggedListing(t *testing.T) {
	catalog, _, provider := newCatalog(t)
	provider.heroErr = fmt.Errorf("%w: dial tcp: refused", superhero.ErrProvider)

	listing, err := catalog.Page(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.True(t, listing.ProviderFailed)
	assert.Empty(t, listing.Heroes)
}

func TestPageDoesNotBackfillNonEmptyStore(t *testing.T) {
	catalog, store, provider := newCatalog(t)
	seedStore(t, store, "Zatanna", "Aquaman", "Flash")

	listing, err := catalog.Page(context.Background(), 2, 2)
	require.NoError(t, err)

	require.Len(t, listing.Heroes, 1)
	assert.Equal(t, "Zatanna", listing.Heroes[0].Name)
	assert.Zero(t, provider.totalHeroCalls())
}

func TestPageSortedByNameWithPaginationBoundaries(t *testing.T) {
	catalog, store, _ := newCatalog(t)
	seedStore(t, store, "Wolverine", "Batman", "Storm", "Aquaman", "Cyclops")
	ctx := context.Background()

	first, err := catalog.Page(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Aquaman", "Batman"}, names(first.Heroes))
	assert.Equal(t, 5, first.Total)
	assert.Equal(t, 3, first.TotalPages)
	assert.True(t, first.HasNext)
	assert.False(t, first.HasPrev)

	last, err := catalog.Page(ctx, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Wolverine"}, names(last.Heroes))
	assert.False(t, last.HasNext)
	assert.True(t, last.HasPrev)
}

func TestPaginateMath(t *testing.T) {
	tests := []struct {
		total, page, size int
		pages             int
		next, prev        bool
	}{
		{total: 0, page: 1, size: 20, pages: 0, next: false, prev: false},
		{total: 20, page: 1, size: 20, pages: 1, next: false, prev: false},
		{total: 21, page: 1, size: 20, pages: 2, next: true, prev: false},
		{total: 21, page: 2, size: 20, pages: 2, next: false, prev: true},
		{total: 731, page: 19, size: 20, pages: 37, next: true, prev: true},
	}
	for _, tc := range tests {
		got := paginate(nil, tc.page, tc.size, tc.total)
		assert.Equal(t, tc.pages, got.TotalPages, "total=%d size=%d", tc.total, tc.size)
		assert.Equal(t, tc.next, got.HasNext, "total=%d page=%d", tc.total, tc.page)
		assert.Equal(t, tc.prev, got.HasPrev, "total=%d page=%d", tc.total, tc.page)
	}
}

func TestSearchUsesCacheFirst(t *testing.T) {
	catalog, store, provider := newCatalog(t)
	seedStore(t, store, "Batman", "Batgirl", "Superman")

	got, err := catalog.Search(context.Background(), "BAT")
	require.NoError(t, err)
	assert.Equal(t, []string{"Batgirl", "Batman"}, names(got))
	assert.Zero(t, provider.searchCalls)
}

func TestSearchMatchesFullName(t *testing.T) {
	catalog, store, _ := newCatalog(t)
	hero := testHero("69")
	hero.Name = "Batman"
	hero.Biography.FullName = "Bruce Wayne"
	_, err := store.SaveHero(context.Background(), hero)
	require.NoError(t, err)

	got, err := catalog.Search(context.Background(), "wayne")
	require.NoError(t, err)
	assert.Equal(t, []string{"Batman"}, names(got))
}

func TestSearchFallsBackToProviderAndPersists(t *testing.T) {
	catalog, store, provider := newCatalog(t)
	for i := 1; i <= 25; i++ {
		provider.results = append(provider.results, testHero(fmt.Sprint(i)))
	}

	got, err := catalog.Search(context.Background(), "hero")
	require.NoError(t, err)
	assert.Len(t, got, SearchLimit)
	assert.Equal(t, 1, provider.searchCalls)

	n, err := store.CountHeroes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	again, err := catalog.Search(context.Background(), "hero")
	require.NoError(t, err)
	assert.Len(t, again, SearchLimit)
	assert.Equal(t, 1, provider.searchCalls)
}

func TestSearchEmptyQuery(t *testing.T) {
	catalog, _, provider := newCatalog(t)

	_, err := catalog.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, provider.searchCalls)
}

func TestSearchProviderFailure(t *testing.T) {
	catalog, _, provider := newCatalog(t)
	provider.searchErr = errors.New("boom")

	_, err := catalog.Search(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestDistinctRandom(t *testing.T) {
	ids := distinctRandom(20, 731)
	require.Len(t, ids, 20)
	seen := make(map[int]bool)
	for _, id := range ids {
		assert.GreaterOrEqual(t, id, 1)
		assert.LessOrEqual(t, id, 731)
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, distinctRandom(10, 3), 3)
}

func names(heroes []models.Hero) []string {
	out := make([]string, 0, len(heroes))
	for _, h := range heroes {
		out = append(out, h.Name)
	}
	return out
}

func TestSeederCountsFailuresWithoutAborting(t *testing.T) {
	store := memory.NewStore()
	provider := newFakeProvider()
	provider.failIDs["3"] = errors.New("rate limited")
	seeder := NewSeeder(store, provider, quietLogger())

	report, err := seeder.Run(context.Background(), SeedOptions{Total: 12, BatchSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 11, report.Saved)
	assert.Equal(t, 1, report.Failed)

	n, err := store.CountHeroes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, n)
}

func TestSeederResetClearsStore(t *testing.T) {
	store := memory.NewStore()
	seedStore(t, store, "Old", "Older", "Oldest")
	seeder := NewSeeder(store, newFakeProvider(), quietLogger())

	report, err := seeder.Run(context.Background(), SeedOptions{IDs: superhero.PopularHeroIDs, Reset: true})
	require.NoError(t, err)
	assert.Equal(t, len(superhero.PopularHeroIDs), report.Saved)

	heroes, err := store.ListHeroes(context.Background(), 0, 100)
	require.NoError(t, err)
	for _, h := range heroes {
		assert.False(t, strings.HasPrefix(h.Name, "Old"))
	}
}
