// Package favorites manages the per-account favorites list: the toggle state machine,
// reason edits, the profile view and the community ranking.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hongminglow/herodex/internal/models"
	"github.com/hongminglow/herodex/internal/storage"
)

// DefaultTopLimit is the size of the community ranking.
const DefaultTopLimit = 10

// ErrUnauthorized is returned when no account is attached to the call.
var ErrUnauthorized = errors.New("authentication required")

// HeroSource resolves heroes, fetching through to the provider on a cache miss.
type HeroSource interface {
	Hero(ctx context.Context, id string) (models.Hero, error)
}

// Favorite is a resolved favorite entry.
type Favorite struct {
	Hero   models.Hero
	Reason string
}

// Ranked is a hero with the number of accounts that favorited it.
type Ranked struct {
	Hero  models.Hero
	Count int
}

// ToggleResult tells the caller which way the toggle went.
type ToggleResult struct {
	Hero  models.Hero
	Added bool
}

// Service implements favorites over the account and hero stores.
type Service struct {
	accounts storage.AccountStore
	heroes   storage.HeroStore
	source   HeroSource
	logger   *slog.Logger
}

// NewService builds the favorites service. source is used to guarantee a hero is cached
// before it can be favorited; heroes is used for read-only resolution.
func NewService(accounts storage.AccountStore, heroes storage.HeroStore, source HeroSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{accounts: accounts, heroes: heroes, source: source, logger: logger}
}

// Toggle adds the hero to the account's favorites when absent and removes it when present.
// The stored reason of an existing entry does not matter for removal.
func (s *Service) Toggle(ctx context.Context, accountID, heroID, reason string) (ToggleResult, error) {
	if strings.TrimSpace(accountID) == "" {
		return ToggleResult{}, ErrUnauthorized
	}
	hero, err := s.source.Hero(ctx, heroID)
	if err != nil {
		return ToggleResult{}, err
	}
	account, err := s.account(ctx, accountID)
	if err != nil {
		return ToggleResult{}, err
	}

	favs := account.Favorites
	result := ToggleResult{Hero: hero}
	if _, idx := account.Favorite(hero.ID); idx >= 0 {
		favs = append(append([]models.FavoriteEntry{}, favs[:idx]...), favs[idx+1:]...)
	} else {
		favs = append(append([]models.FavoriteEntry{}, favs...), models.FavoriteEntry{HeroID: hero.ID, Reason: strings.TrimSpace(reason)})
		result.Added = true
	}

	if err := s.accounts.UpdateFavorites(ctx, accountID, favs); err != nil {
		return ToggleResult{}, fmt.Errorf("update favorites: %w", err)
	}
	s.logger.InfoContext(ctx, "favorite toggled", "account_id", accountID, "hero_id", hero.ID, "added", result.Added)
	return result, nil
}

// UpdateReason overwrites the reason of an existing favorite. It reports false, without
// error, when the hero is not among the account's favorites.
func (s *Service) UpdateReason(ctx context.Context, accountID, heroID, reason string) (bool, error) {
	if strings.TrimSpace(accountID) == "" {
		return false, ErrUnauthorized
	}
	account, err := s.account(ctx, accountID)
	if err != nil {
		return false, err
	}
	_, idx := account.Favorite(heroID)
	if idx < 0 {
		return false, nil
	}

	favs := append([]models.FavoriteEntry{}, account.Favorites...)
	favs[idx].Reason = strings.TrimSpace(reason)
	if err := s.accounts.UpdateFavorites(ctx, accountID, favs); err != nil {
		return false, fmt.Errorf("update favorites: %w", err)
	}
	return true, nil
}

// Entry reports whether the hero is a favorite of the account, with its reason.
func (s *Service) Entry(ctx context.Context, accountID, heroID string) (models.FavoriteEntry, bool, error) {
	if strings.TrimSpace(accountID) == "" {
		return models.FavoriteEntry{}, false, nil
	}
	account, err := s.account(ctx, accountID)
	if err != nil {
		return models.FavoriteEntry{}, false, err
	}
	entry, idx := account.Favorite(heroID)
	return entry, idx >= 0, nil
}

// Favorited returns the set of hero IDs the account has favorited. An anonymous caller
// gets an empty set.
func (s *Service) Favorited(ctx context.Context, accountID string) (map[string]bool, error) {
	set := make(map[string]bool)
	if strings.TrimSpace(accountID) == "" {
		return set, nil
	}
	account, err := s.account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for _, fav := range account.Favorites {
		set[fav.HeroID] = true
	}
	return set, nil
}

// List resolves the account's favorites in insertion order. Entries whose hero is not
// cached are skipped.
func (s *Service) List(ctx context.Context, accountID string) ([]Favorite, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, ErrUnauthorized
	}
	account, err := s.account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(account.Favorites))
	for _, fav := range account.Favorites {
		ids = append(ids, fav.HeroID)
	}
	byID, err := s.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Favorite, 0, len(account.Favorites))
	for _, fav := range account.Favorites {
		hero, ok := byID[fav.HeroID]
		if !ok {
			s.logger.WarnContext(ctx, "favorite references uncached hero", "account_id", accountID, "hero_id", fav.HeroID)
			continue
		}
		out = append(out, Favorite{Hero: hero, Reason: fav.Reason})
	}
	return out, nil
}

// Top ranks heroes by how many accounts favorited them. The top limit ids are picked
// first and then resolved, so an uncached hero drops out without being replaced.
func (s *Service) Top(ctx context.Context, limit int) ([]Ranked, error) {
	if limit < 1 {
		limit = DefaultTopLimit
	}
	counts, err := s.accounts.FavoriteCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("favorite counts: %w", err)
	}
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].HeroID < counts[j].HeroID
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}

	ids := make([]string, 0, len(counts))
	for _, c := range counts {
		ids = append(ids, c.HeroID)
	}
	byID, err := s.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Ranked, 0, len(counts))
	for _, c := range counts {
		hero, ok := byID[c.HeroID]
		if !ok {
			continue
		}
		out = append(out, Ranked{Hero: hero, Count: c.Count})
	}
	return out, nil
}

func (s *Service) account(ctx context.Context, id string) (models.Account, error) {
	account, err := s.accounts.FindAccount(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Account{}, ErrUnauthorized
		}
		return models.Account{}, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

func (s *Service) resolve(ctx context.Context, ids []string) (map[string]models.Hero, error) {
	heroes, err := s.heroes.FindHeroes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve heroes: %w", err)
	}
	byID := make(map[string]models.Hero, len(heroes))
	for _, h := range heroes {
		byID[h.ID] = h
	}
	return byID, nil
}
