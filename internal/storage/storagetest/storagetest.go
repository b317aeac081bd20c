// Package storagetest holds behaviour checks shared by every storage.Store implementation.
package storagetest

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/herodex/internal/models"
	"github.com/hongminglow/herodex/internal/storage"
)

// Run exercises store against the storage contracts. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("SaveHeroIsIdempotent", func(t *testing.T) { testSaveHeroIsIdempotent(t, newStore(t)) })
	t.Run("ListHeroesSortsAndPages", func(t *testing.T) { testListHeroes(t, newStore(t)) })
	t.Run("FindHeroes", func(t *testing.T) { testFindHeroes(t, newStore(t)) })
	t.Run("SearchHeroes", func(t *testing.T) { testSearchHeroes(t, newStore(t)) })
	t.Run("DeleteAllHeroes", func(t *testing.T) { testDeleteAllHeroes(t, newStore(t)) })
	t.Run("Accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("FavoriteCounts", func(t *testing.T) { testFavoriteCounts(t, newStore(t)) })
}

func hero(id, name, fullName string) models.Hero {
	return models.Hero{
		ID:         id,
		Name:       name,
		Image:      "https://img.example/" + id + ".jpg",
		Powerstats: models.Powerstats{Intelligence: 81, Strength: 40},
		Biography:  models.Biography{FullName: fullName, Aliases: []string{"Alias " + id}},
		Appearance: models.Appearance{Height: []string{"6'2", "188 cm"}, Weight: []string{"210 lb", "95 kg"}},
	}
}

func seed(t *testing.T, s storage.Store, heroes ...models.Hero) {
	t.Helper()
	for _, h := range heroes {
		_, err := s.SaveHero(context.Background(), h)
		require.NoError(t, err)
	}
}

func ids(heroes []models.Hero) []string {
	out := make([]string, 0, len(heroes))
	for _, h := range heroes {
		out = append(out, h.ID)
	}
	return out
}

func testSaveHeroIsIdempotent(t *testing.T, s storage.Store) {
	ctx := context.Background()
	first, err := s.SaveHero(ctx, hero("69", "Batman", "Bruce Wayne"))
	require.NoError(t, err)
	assert.Equal(t, "Batman", first.Name)
	assert.False(t, first.CreatedAt.IsZero())

	again, err := s.SaveHero(ctx, hero("69", "Batman (renamed)", "Bruce Wayne"))
	require.NoError(t, err)
	assert.Equal(t, "Batman", again.Name, "existing record is kept")

	got, err := s.FindHero(ctx, "69")
	require.NoError(t, err)
	assert.Equal(t, "Bruce Wayne", got.Biography.FullName)
	assert.Equal(t, []string{"Alias 69"}, got.Biography.Aliases)
	assert.Equal(t, []string{"6'2", "188 cm"}, got.Appearance.Height)
	assert.Equal(t, 81, got.Powerstats.Intelligence)

	count, err := s.CountHeroes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = s.FindHero(ctx, "70")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testListHeroes(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seed(t, s,
		hero("3", "Cyclops", ""),
		hero("1", "Angel", ""),
		hero("5", "Beast", ""),
		hero("2", "Angel", ""),
		hero("4", "Storm", ""),
	)

	page, err := s.ListHeroes(ctx, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "5"}, ids(page), "sorted by name then id")

	page, err = s.ListHeroes(ctx, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4"}, ids(page))

	page, err = s.ListHeroes(ctx, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func testFindHeroes(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seed(t, s, hero("69", "Batman", ""), hero("644", "Superman", ""))

	got, err := s.FindHeroes(ctx, []string{"644", "999", "69"})
	require.NoError(t, err)
	found := ids(got)
	sort.Strings(found)
	assert.Equal(t, []string{"644", "69"}, found)

	got, err = s.FindHeroes(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testSearchHeroes(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seed(t, s,
		hero("69", "Batman", "Bruce Wayne"),
		hero("70", "Batman II", "Dick Grayson"),
		hero("644", "Superman", "Clark Kent"),
		hero("1", "A-Bomb", "Richard Milhouse Jones"),
	)

	got, err := s.SearchHeroes(ctx, "BAT", 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"69", "70"}, ids(got))

	got, err = s.SearchHeroes(ctx, "kent", 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"644"}, ids(got), "full name matches")

	got, err = s.SearchHeroes(ctx, "a-b", 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(got), "query is literal")

	got, err = s.SearchHeroes(ctx, "%", 20)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.SearchHeroes(ctx, "a", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func testDeleteAllHeroes(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seed(t, s, hero("69", "Batman", ""), hero("644", "Superman", ""))
	require.NoError(t, s.DeleteAllHeroes(ctx))

	count, err := s.CountHeroes(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func account(username string) models.Account {
	return models.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$hash",
	}
}

func testAccounts(t *testing.T, s storage.Store) {
	ctx := context.Background()
	created, err := s.CreateAccount(ctx, account("bruce"))
	require.NoError(t, err)
	assert.Empty(t, created.Favorites)
	assert.False(t, created.CreatedAt.IsZero())

	dupName := account("bruce")
	dupName.Email = "other@example.com"
	_, err = s.CreateAccount(ctx, dupName)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	dupEmail := account("batman")
	dupEmail.Email = "bruce@example.com"
	_, err = s.CreateAccount(ctx, dupEmail)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	byEmail, err := s.FindByEmailOrUsername(ctx, "bruce@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	byName, err := s.FindByEmailOrUsername(ctx, "", "bruce")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
	_, err = s.FindByEmailOrUsername(ctx, "nobody@example.com", "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	favs := []models.FavoriteEntry{{HeroID: "720", Reason: "wings"}, {HeroID: "69"}}
	require.NoError(t, s.UpdateFavorites(ctx, created.ID, favs))
	got, err := s.FindAccount(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, favs, got.Favorites, "insertion order is kept")
	assert.Equal(t, "$2a$10$hash", got.PasswordHash)

	assert.ErrorIs(t, s.UpdateFavorites(ctx, uuid.NewString(), favs), storage.ErrNotFound)
	_, err = s.FindAccount(ctx, uuid.NewString())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testFavoriteCounts(t *testing.T, s storage.Store) {
	ctx := context.Background()
	for name, favs := range map[string][]string{
		"alice": {"69", "644"},
		"bob":   {"644"},
		"carol": {"644", "69", "720"},
	} {
		acc, err := s.CreateAccount(ctx, account(name))
		require.NoError(t, err)
		entries := make([]models.FavoriteEntry, 0, len(favs))
		for _, id := range favs {
			entries = append(entries, models.FavoriteEntry{HeroID: id})
		}
		require.NoError(t, s.UpdateFavorites(ctx, acc.ID, entries))
	}

	counts, err := s.FavoriteCounts(ctx)
	require.NoError(t, err)
	byHero := make(map[string]int, len(counts))
	for _, c := range counts {
		byHero[c.HeroID] = c.Count
	}
	assert.Equal(t, map[string]int{"644": 3, "69": 2, "720": 1}, byHero)
}
