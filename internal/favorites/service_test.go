package favorites

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/herodex/internal/heroes"
	"github.com/hongminglow/herodex/internal/models"
	"github.com/hongminglow/herodex/internal/storage"
	"github.com/hongminglow/herodex/internal/storage/memory"
	"github.com/hongminglow/herodex/internal/superhero"
)

type stubProvider struct {
	calls int
}

func (p *stubProvider) Hero(_ context.Context, id string) (models.Hero, error) {
	p.calls++
	if id == "0" {
		return models.Hero{}, fmt.Errorf("%w: invalid id", superhero.ErrNotFound)
	}
	return models.Hero{ID: id, Name: "Hero " + id}, nil
}

func (p *stubProvider) Search(context.Context, string) ([]models.Hero, error) {
	return nil, nil
}

type fixture struct {
	svc      *Service
	store    *memory.Store
	provider *stubProvider
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	provider := &stubProvider{}
	catalog := heroes.NewCatalog(store, provider, logger)
	return fixture{svc: NewService(store, store, catalog, logger), store: store, provider: provider}
}

func (f fixture) account(t *testing.T, username string) models.Account {
	t.Helper()
	acc, err := f.store.CreateAccount(context.Background(), models.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return acc
}

func TestToggleAddsThenRemoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.account(t, "alice")

	res, err := f.svc.Toggle(ctx, acc.ID, "69", "childhood idol")
	require.NoError(t, err)
	assert.True(t, res.Added)
	assert.Equal(t, "Hero 69", res.Hero.Name)

	list, err := f.svc.List(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "69", list[0].Hero.ID)
	assert.Equal(t, "childhood idol", list[0].Reason)

	res, err = f.svc.Toggle(ctx, acc.ID, "69", "")
	require.NoError(t, err)
	assert.False(t, res.Added)

	list, err = f.svc.List(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestToggleRequiresAccount(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Toggle(context.Background(), "", "69", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, f.provider.calls)

	_, err = f.svc.Toggle(context.Background(), "ghost", "69", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestToggleCachesHeroBeforeFavoriting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.account(t, "bob")

	_, err := f.svc.Toggle(ctx, acc.ID, "644", "")
	require.NoError(t, err)

	hero, err := f.store.FindHero(ctx, "644")
	require.NoError(t, err)
	assert.Equal(t, "Hero 644", hero.Name)
}

func TestToggleUnknownHeroLeavesFavoritesUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.account(t, "carol")

	_, err := f.svc.Toggle(ctx, acc.ID, "0", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, heroes.ErrNotFound)

	stored, err := f.store.FindAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Favorites)
}

func TestFavoritesKeepInsertionOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.account(t, "dave")

	for _, id := range []string{"720", "69", "346"} {
		_, err := f.svc.Toggle(ctx, acc.ID, id, "")
		require.NoError(t, err)
	}
	_, err := f.svc.Toggle(ctx, acc.ID, "69", "")
	require.NoError(t, err)
	_, err = f.svc.Toggle(ctx, acc.ID, "69", "again")
	require.NoError(t, err)

	list, err := f.svc.List(ctx, acc.ID)
	require.NoError(t, err)
	var ids []string
	for _, fav := range list {
		ids = append(ids, fav.Hero.ID)
	}
	assert.Equal(t, []string{"720", "346", "69"}, ids)
}

func TestUpdateReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.account(t, "erin")

	_, err := f.svc.Toggle(ctx, acc.ID, "69", "cape")
	require.NoError(t, err)

	updated, err := f.svc.UpdateReason(ctx, acc.ID, "69", "gadgets")
	require.NoError(t, err)
	assert.True(t, updated)

	entry, ok, err := f.svc.Entry(ctx, acc.ID, "69")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "gadgets", entry.Reason)
}

func TestUpdateReasonOnMissingFavoriteIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.account(t, "frank")

	updated, err := f.svc.UpdateReason(ctx, acc.ID, "69", "never favorited")
	require.NoError(t, err)
	assert.False(t, updated)

	stored, err := f.store.FindAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Favorites)
}

func TestListSkipsUncachedHeroes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.account(t, "gina")

	_, err := f.svc.Toggle(ctx, acc.ID, "69", "")
	require.NoError(t, err)
	require.NoError(t, f.store.UpdateFavorites(ctx, acc.ID, []models.FavoriteEntry{
		{HeroID: "404"},
		{HeroID: "69", Reason: "kept"},
	}))

	list, err := f.svc.List(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "kept", list[0].Reason)
}

func TestTopCountsDistinctAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice")
	bob := f.account(t, "bob")

	for _, acc := range []models.Account{alice, bob} {
		_, err := f.svc.Toggle(ctx, acc.ID, "644", "")
		require.NoError(t, err)
	}
	_, err := f.svc.Toggle(ctx, alice.ID, "69", "")
	require.NoError(t, err)

	top, err := f.svc.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "644", top[0].Hero.ID)
	assert.Equal(t, 2, top[0].Count)
	assert.Equal(t, "69", top[1].Hero.ID)
	assert.Equal(t, 1, top[1].Count)
}

func TestTopDropsUnresolvedWithoutBackfilling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice")
	bob := f.account(t, "bob")

	_, err := f.svc.Toggle(ctx, alice.ID, "69", "")
	require.NoError(t, err)
	require.NoError(t, f.store.UpdateFavorites(ctx, bob.ID, []models.FavoriteEntry{{HeroID: "999"}, {HeroID: "69"}}))
	require.NoError(t, f.store.UpdateFavorites(ctx, alice.ID, []models.FavoriteEntry{{HeroID: "69"}, {HeroID: "999"}}))

	top, err := f.svc.Top(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "69", top[0].Hero.ID)

	// 999 ties with 69 but is not cached, so the second slot stays empty.
	top, err = f.svc.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 1)
}

type failingAccounts struct {
	storage.AccountStore
}

func (failingAccounts) UpdateFavorites(context.Context, string, []models.FavoriteEntry) error {
	return errors.New("disk full")
}

func TestTogglePersistenceErrorIsReturned(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, "hank")
	svc := NewService(failingAccounts{f.store}, f.store, f.svc.source, nil)

	_, err := svc.Toggle(context.Background(), acc.ID, "69", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestFavoritedSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.account(t, "ivy")

	set, err := f.svc.Favorited(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, set)

	_, err = f.svc.Toggle(ctx, acc.ID, "149", "")
	require.NoError(t, err)
	set, err = f.svc.Favorited(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"149": true}, set)
}
