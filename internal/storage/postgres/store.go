package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/hongminglow/herodex/internal/models"
	"github.com/hongminglow/herodex/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for heroes and accounts. Heroes and favorites
// are kept as JSONB documents; scalar columns exist only for lookups, sorting and uniqueness.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres, verifies the connection and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Ping checks that the pool can reach the server.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

const heroColumns = `document, created_at`

// FindHero fetches a cached hero by provider id.
func (s *Store) FindHero(ctx context.Context, id string) (models.Hero, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+heroColumns+` FROM heroes WHERE id = $1`, id)
	return scanHero(row)
}

// FindHeroes fetches every cached hero whose id is listed.
func (s *Store) FindHeroes(ctx context.Context, ids []string) ([]models.Hero, error) {
	if len(ids) == 0 {
		return []models.Hero{}, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+heroColumns+` FROM heroes WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return collectHeroes(rows)
}

// ListHeroes returns one page of heroes ordered by name.
func (s *Store) ListHeroes(ctx context.Context, offset, limit int) ([]models.Hero, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+heroColumns+`
		FROM heroes
		ORDER BY name ASC, id ASC
		OFFSET $1 LIMIT $2;
	`, offset, limit)
	if err != nil {
		return nil, err
	}
	return collectHeroes(rows)
}

// CountHeroes returns the number of cached heroes.
func (s *Store) CountHeroes(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM heroes`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// SearchHeroes matches the query as a literal, case-insensitive substring of name or full name.
func (s *Store) SearchHeroes(ctx context.Context, query string, limit int) ([]models.Hero, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+heroColumns+`
		FROM heroes
		WHERE strpos(lower(name), lower($1)) > 0 OR strpos(lower(full_name), lower($1)) > 0
		ORDER BY name ASC, id ASC
		LIMIT $2;
	`, query, limit)
	if err != nil {
		return nil, err
	}
	return collectHeroes(rows)
}

// SaveHero inserts the hero, returning the already cached record when the id exists.
func (s *Store) SaveHero(ctx context.Context, hero models.Hero) (models.Hero, error) {
	doc, err := json.Marshal(hero)
	if err != nil {
		return models.Hero{}, fmt.Errorf("encode hero: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO heroes (id, name, full_name, document)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (id) DO NOTHING
		RETURNING `+heroColumns+`;
	`, hero.ID, hero.Name, hero.Biography.FullName, string(doc))
	saved, err := scanHero(row)
	if errors.Is(err, storage.ErrNotFound) {
		return s.FindHero(ctx, hero.ID)
	}
	return saved, err
}

// DeleteAllHeroes empties the hero cache.
func (s *Store) DeleteAllHeroes(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM heroes`)
	return err
}

const accountColumns = `id, username, email, password_hash, favorites, created_at`

// CreateAccount inserts a new account row.
func (s *Store) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	favorites, err := encodeFavorites(account.Favorites)
	if err != nil {
		return models.Account{}, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, username, email, password_hash, favorites)
		VALUES ($1, $2, $3, $4, $5::jsonb)
		RETURNING `+accountColumns+`;
	`, account.ID, account.Username, account.Email, account.PasswordHash, favorites)
	created, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.Account{}, storage.ErrAlreadyExists
		}
		return models.Account{}, err
	}
	return created, nil
}

// FindAccount fetches an account by id.
func (s *Store) FindAccount(ctx context.Context, id string) (models.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// FindByEmailOrUsername fetches the oldest account matching the email or the username.
func (s *Store) FindByEmailOrUsername(ctx context.Context, email, username string) (models.Account, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE email = $1 OR username = $2
		ORDER BY created_at ASC
		LIMIT 1;
	`, email, username)
	return scanAccount(row)
}

// UpdateFavorites overwrites the favorites document of an account.
func (s *Store) UpdateFavorites(ctx context.Context, accountID string, favorites []models.FavoriteEntry) error {
	doc, err := encodeFavorites(favorites)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `UPDATE accounts SET favorites = $2::jsonb WHERE id = $1`, accountID, doc)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// FavoriteCounts groups favorites across all accounts by hero id.
func (s *Store) FavoriteCounts(ctx context.Context) ([]storage.HeroCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT f->>'heroId' AS hero_id, COUNT(DISTINCT a.id)
		FROM accounts a
		CROSS JOIN LATERAL jsonb_array_elements(a.favorites) AS f
		GROUP BY 1
		ORDER BY 1;
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

func scanHero(row pgx.Row) (models.Hero, error) {
	var (
		doc       []byte
		createdAt time.Time
	)
	if err := row.Scan(&doc, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Hero{}, storage.ErrNotFound
		}
		return models.Hero{}, err
	}
	var hero models.Hero
	if err := json.Unmarshal(doc, &hero); err != nil {
		return models.Hero{}, fmt.Errorf("decode hero: %w", err)
	}
	hero.CreatedAt = createdAt
	return hero, nil
}

func collectHeroes(rows pgx.Rows) ([]models.Hero, error) {
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

func scanAccount(row pgx.Row) (models.Account, error) {
	var (
		account   models.Account
		favorites []byte
	)
	if err := row.Scan(&account.ID, &account.Username, &account.Email, &account.PasswordHash, &favorites, &account.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, storage.ErrNotFound
		}
		return models.Account{}, err
	}
	if err := json.Unmarshal(favorites, &account.Favorites); err != nil {
		return models.Account{}, fmt.Errorf("decode favorites: %w", err)
	}
	if account.Favorites == nil {
		account.Favorites = []models.FavoriteEntry{}
	}
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
