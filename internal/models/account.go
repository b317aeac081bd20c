package models

import "time"

// Account captures a registered user together with their ordered favorites.
type Account struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Favorites    []FavoriteEntry `json:"favorites"`
	CreatedAt    time.Time       `json:"created_at"`
}

// FavoriteEntry associates a hero with an optional free-text reason.
type FavoriteEntry struct {
	HeroID string `json:"heroId"`
	Reason string `json:"reason"`
}

// Identity is the minimal account snapshot kept in a session.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Identity returns the session snapshot of the account.
func (a Account) Identity() Identity {
	return Identity{ID: a.ID, Username: a.Username, Email: a.Email}
}

// Favorite returns the entry for heroID and its position, or -1 when absent.
func (a Account) Favorite(heroID string) (FavoriteEntry, int) {
	for i, fav := range a.Favorites {
		if fav.HeroID == heroID {
			return fav, i
		}
	}
	return FavoriteEntry{}, -1
}
