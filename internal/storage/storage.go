package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/herodex/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// HeroStore captures hero cache persistence needed by the catalog.
type HeroStore interface {
	// FindHero returns the hero cached under the provider id.
	FindHero(ctx context.Context, id string) (models.Hero, error)
	// FindHeroes returns the cached heroes among ids, in no particular order. Unknown ids are skipped.
	FindHeroes(ctx context.Context, ids []string) ([]models.Hero, error)
	// ListHeroes returns heroes sorted by name ascending.
	ListHeroes(ctx context.Context, offset, limit int) ([]models.Hero, error)
	CountHeroes(ctx context.Context) (int, error)
	// SearchHeroes matches query case-insensitively as a substring of the name or the full name.
	SearchHeroes(ctx context.Context, query string, limit int) ([]models.Hero, error)
	// SaveHero inserts the hero. Saving an id that already exists returns the stored record unchanged.
	SaveHero(ctx context.Context, hero models.Hero) (models.Hero, error)
	DeleteAllHeroes(ctx context.Context) error
}

// HeroCount is the number of distinct accounts that favorited a hero.
type HeroCount struct {
	HeroID string
	Count  int
}

// AccountStore captures account persistence needed by auth and favorites.
type AccountStore interface {
	CreateAccount(ctx context.Context, account models.Account) (models.Account, error)
	FindAccount(ctx context.Context, id string) (models.Account, error)
	// FindByEmailOrUsername matches email (already lowercased by the caller) or the exact username.
	FindByEmailOrUsername(ctx context.Context, email, username string) (models.Account, error)
	// UpdateFavorites replaces the ordered favorites list of the account.
	UpdateFavorites(ctx context.Context, accountID string, favorites []models.FavoriteEntry) error
	// FavoriteCounts groups every favorite entry by hero id.
	FavoriteCounts(ctx context.Context) ([]HeroCount, error)
}

// Store bundles both stores behind one connection.
type Store interface {
	HeroStore
	AccountStore
	Ping(ctx context.Context) error
	Close()
}
