// Package sqlite provides a SQLite-backed implementation of the storage contracts,
// meant for single-node deployments and local development.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/hongminglow/herodex/internal/models"
	"github.com/hongminglow/herodex/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ storage.Store = (*Store)(nil)

// Store persists heroes and accounts in SQLite, with documents encoded as JSON text.
type Store struct {
	db *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database file at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the SQLite handle.
func (s *Store) Close() {
	if s != nil && s.db != nil {
		_ = s.db.Close()
	}
}

const heroColumns = `document, created_at`

func (s *Store) FindHero(ctx context.Context, id string) (models.Hero, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+heroColumns+` FROM heroes WHERE id = ?`, id)
	return scanHero(row)
}

func (s *Store) FindHeroes(ctx context.Context, ids []string) ([]models.Hero, error) {
	if len(ids) == 0 {
		return []models.Hero{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+heroColumns+` FROM heroes WHERE id IN (`+strings.Join(placeholders, ",")+`)`, args...)
	if err != nil {
		return nil, err
	}
	return collectHeroes(rows)
}

func (s *Store) ListHeroes(ctx context.Context, offset, limit int) ([]models.Hero, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+heroColumns+`
		FROM heroes
		ORDER BY name ASC, id ASC
		LIMIT ? OFFSET ?;
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectHeroes(rows)
}

func (s *Store) CountHeroes(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM heroes`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// SearchHeroes matches a literal substring; SQLite's lower() folds ASCII only.
func (s *Store) SearchHeroes(ctx context.Context, query string, limit int) ([]models.Hero, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+heroColumns+`
		FROM heroes
		WHERE instr(lower(name), lower(?1)) > 0 OR instr(lower(full_name), lower(?1)) > 0
		ORDER BY name ASC, id ASC
		LIMIT ?2;
	`, query, limit)
	if err != nil {
		return nil, err
	}
	return collectHeroes(rows)
}

func (s *Store) SaveHero(ctx context.Context, hero models.Hero) (models.Hero, error) {
	if hero.CreatedAt.IsZero() {
		hero.CreatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(hero)
	if err != nil {
		return models.Hero{}, fmt.Errorf("encode hero: %w", err)
	}
	// On conflict the stored record wins; reading it back covers both outcomes.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO heroes (id, name, full_name, document, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING;
	`, hero.ID, hero.Name, hero.Biography.FullName, string(doc), toMillis(hero.CreatedAt))
	if err != nil {
		return models.Hero{}, err
	}
	return s.FindHero(ctx, hero.ID)
}

func (s *Store) DeleteAllHeroes(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM heroes`)
	return err
}

const accountColumns = `id, username, email, password_hash, favorites, created_at`

func (s *Store) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	favorites, err := encodeFavorites(account.Favorites)
	if err != nil {
		return models.Account{}, err
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, username, email, password_hash, favorites, created_at)
		VALUES (?, ?, ?, ?, ?, ?);
	`, account.ID, account.Username, account.Email, account.PasswordHash, favorites, toMillis(account.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Account{}, storage.ErrAlreadyExists
		}
		return models.Account{}, err
	}
	return s.FindAccount(ctx, account.ID)
}

func (s *Store) FindAccount(ctx context.Context, id string) (models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (s *Store) FindByEmailOrUsername(ctx context.Context, email, username string) (models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE email = ? OR username = ?
		ORDER BY created_at ASC
		LIMIT 1;
	`, email, username)
	return scanAccount(row)
}

func (s *Store) UpdateFavorites(ctx context.Context, accountID string, favorites []models.FavoriteEntry) error {
	doc, err := encodeFavorites(favorites)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET favorites = ? WHERE id = ?`, doc, accountID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) FavoriteCounts(ctx context.Context) ([]storage.HeroCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT json_extract(f.value, '$.heroId') AS hero_id, COUNT(DISTINCT a.id)
		FROM accounts a, json_each(a.favorites) AS f
		GROUP BY hero_id
		ORDER BY hero_id;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.HeroCount
	for rows.Next() {
		var hc storage.HeroCount
		if err := rows.Scan(&hc.HeroID, &hc.Count); err != nil {
			return nil, err
		}
		out = append(out, hc)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHero(row scanner) (models.Hero, error) {
	var (
		doc       string
		createdAt int64
	)
	if err := row.Scan(&doc, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Hero{}, storage.ErrNotFound
		}
		return models.Hero{}, err
	}
	var hero models.Hero
	if err := json.Unmarshal([]byte(doc), &hero); err != nil {
		return models.Hero{}, fmt.Errorf("decode hero: %w", err)
	}
	hero.CreatedAt = fromMillis(createdAt)
	return hero, nil
}

func collectHeroes(rows *sql.Rows) ([]models.Hero, error) {
	defer rows.Close()
	out := []models.Hero{}
	for rows.Next() {
		hero, err := scanHero(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, hero)
	}
	return out, rows.Err()
}

func scanAccount(row scanner) (models.Account, error) {
	var (
		account   models.Account
		favorites string
		createdAt int64
	)
	if err := row.Scan(&account.ID, &account.Username, &account.Email, &account.PasswordHash, &favorites, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, storage.ErrNotFound
		}
		return models.Account{}, err
	}
	if err := json.Unmarshal([]byte(favorites), &account.Favorites); err != nil {
		return models.Account{}, fmt.Errorf("decode favorites: %w", err)
	}
	if account.Favorites == nil {
		account.Favorites = []models.FavoriteEntry{}
	}
	account.CreatedAt = fromMillis(createdAt)
	return account, nil
}

func encodeFavorites(favorites []models.FavoriteEntry) (string, error) {
	if favorites == nil {
		favorites = []models.FavoriteEntry{}
	}
	doc, err := json.Marshal(favorites)
	if err != nil {
		return "", fmt.Errorf("encode favorites: %w", err)
	}
	return string(doc), nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
