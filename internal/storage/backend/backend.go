// Package backend opens the storage implementation selected by configuration.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/hongminglow/herodex/internal/config"
	"github.com/hongminglow/herodex/internal/storage"
	"github.com/hongminglow/herodex/internal/storage/memory"
	"github.com/hongminglow/herodex/internal/storage/postgres"
	"github.com/hongminglow/herodex/internal/storage/sqlite"
)

// Open connects to the configured driver. The returned store has already been
// pinged and migrated.
func Open(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, strings.TrimPrefix(cfg.DatabaseURL, "sqlite://"))
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}
