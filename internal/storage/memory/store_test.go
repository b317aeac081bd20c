package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/herodex/internal/models"
	"github.com/hongminglow/herodex/internal/storage"
	"github.com/hongminglow/herodex/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(*testing.T) storage.Store { return NewStore() })
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	acc, err := s.CreateAccount(ctx, models.Account{ID: "a", Username: "a", Email: "a@example.com"})
	require.NoError(t, err)
	require.NoError(t, s.UpdateFavorites(ctx, acc.ID, []models.FavoriteEntry{{HeroID: "69"}}))

	got, err := s.FindAccount(ctx, acc.ID)
	require.NoError(t, err)
	got.Favorites[0].Reason = "mutated"

	again, err := s.FindAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Favorites[0].Reason)
}

func TestSearchFoldsUnicode(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, err := s.SaveHero(ctx, models.Hero{ID: "1", Name: "Ünter"})
	require.NoError(t, err)

	got, err := s.SearchHeroes(ctx, "üNT", 20)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
