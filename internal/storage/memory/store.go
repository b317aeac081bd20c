// Package memory provides an in-process implementation of the storage contracts.
// It backs DATABASE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/hongminglow/herodex/internal/models"
	"github.com/hongminglow/herodex/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps heroes and accounts in maps guarded by a single mutex.
type Store struct {
	mu       sync.RWMutex
	heroes   map[string]models.Hero
	accounts map[string]models.Account
	order    []string // account ids in creation order
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		heroes:   make(map[string]models.Hero),
		accounts: make(map[string]models.Account),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

func (s *Store) FindHero(_ context.Context, id string) (models.Hero, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hero, ok := s.heroes[id]
	if !ok {
		return models.Hero{}, storage.ErrNotFound
	}
	return cloneHero(hero), nil
}

func (s *Store) FindHeroes(_ context.Context, ids []string) ([]models.Hero, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Hero, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if hero, ok := s.heroes[id]; ok {
			out = append(out, cloneHero(hero))
		}
	}
	return out, nil
}

func (s *Store) ListHeroes(_ context.Context, offset, limit int) ([]models.Hero, error) {
	s.mu.RLock()
	sorted := s.sortedHeroes()
	s.mu.RUnlock()
	return window(sorted, offset, limit), nil
}

func (s *Store) CountHeroes(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.heroes), nil
}

func (s *Store) SearchHeroes(_ context.Context, query string, limit int) ([]models.Hero, error) {
	// A Caser is stateful, so each search gets its own.
	fold := cases.Fold()
	needle := fold.String(query)
	s.mu.RLock()
	sorted := s.sortedHeroes()
	s.mu.RUnlock()
	var out []models.Hero
	for _, hero := range sorted {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.Contains(fold.String(hero.Name), needle) ||
			strings.Contains(fold.String(hero.Biography.FullName), needle) {
			out = append(out, hero)
		}
	}
	return out, nil
}

func (s *Store) SaveHero(_ context.Context, hero models.Hero) (models.Hero, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.heroes[hero.ID]; ok {
		return cloneHero(existing), nil
	}
	if hero.CreatedAt.IsZero() {
		hero.CreatedAt = time.Now().UTC()
	}
	s.heroes[hero.ID] = cloneHero(hero)
	return hero, nil
}

func (s *Store) DeleteAllHeroes(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heroes = make(map[string]models.Hero)
	return nil
}

func (s *Store) CreateAccount(_ context.Context, account models.Account) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.ID == account.ID || existing.Username == account.Username || existing.Email == account.Email {
			return models.Account{}, storage.ErrAlreadyExists
		}
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	account.Favorites = cloneFavorites(account.Favorites)
	s.accounts[account.ID] = account
	s.order = append(s.order, account.ID)
	return cloneAccount(account), nil
}

func (s *Store) FindAccount(_ context.Context, id string) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return models.Account{}, storage.ErrNotFound
	}
	return cloneAccount(account), nil
}

func (s *Store) FindByEmailOrUsername(_ context.Context, email, username string) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		account := s.accounts[id]
		if account.Email == email || account.Username == username {
			return cloneAccount(account), nil
		}
	}
	return models.Account{}, storage.ErrNotFound
}

func (s *Store) UpdateFavorites(_ context.Context, accountID string, favorites []models.FavoriteEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return storage.ErrNotFound
	}
	account.Favorites = cloneFavorites(favorites)
	s.accounts[accountID] = account
	return nil
}

func (s *Store) FavoriteCounts(_ context.Context) ([]storage.HeroCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	var ids []string
	for _, accountID := range s.order {
		seen := make(map[string]bool)
		for _, fav := range s.accounts[accountID].Favorites {
			if seen[fav.HeroID] {
				continue
			}
			seen[fav.HeroID] = true
			if _, ok := counts[fav.HeroID]; !ok {
				ids = append(ids, fav.HeroID)
			}
			counts[fav.HeroID]++
		}
	}
	out := make([]storage.HeroCount, 0, len(ids))
	for _, id := range ids {
		out = append(out, storage.HeroCount{HeroID: id, Count: counts[id]})
	}
	return out, nil
}

// sortedHeroes must be called with at least a read lock held.
func (s *Store) sortedHeroes() []models.Hero {
	out := make([]models.Hero, 0, len(s.heroes))
	for _, hero := range s.heroes {
		out = append(out, cloneHero(hero))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func window(heroes []models.Hero, offset, limit int) []models.Hero {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(heroes) {
		return []models.Hero{}
	}
	end := len(heroes)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return heroes[offset:end]
}

func cloneHero(h models.Hero) models.Hero {
	h.Biography.Aliases = append([]string(nil), h.Biography.Aliases...)
	h.Appearance.Height = append([]string(nil), h.Appearance.Height...)
	h.Appearance.Weight = append([]string(nil), h.Appearance.Weight...)
	return h
}

func cloneAccount(a models.Account) models.Account {
	a.Favorites = cloneFavorites(a.Favorites)
	return a
}

func cloneFavorites(in []models.FavoriteEntry) []models.FavoriteEntry {
	if in == nil {
		return []models.FavoriteEntry{}
	}
	return append([]models.FavoriteEntry(nil), in...)
}
