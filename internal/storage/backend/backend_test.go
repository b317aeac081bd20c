package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/herodex/internal/config"
)

func TestOpenMemory(t *testing.T) {
	store, err := Open(context.Background(), config.Config{DatabaseDriver: config.DriverMemory})
	require.NoError(t, err)
	defer store.Close()
	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "herodex.db")
	store, err := Open(context.Background(), config.Config{DatabaseDriver: config.DriverSQLite, DatabaseURL: "sqlite://" + path})
	require.NoError(t, err)
	defer store.Close()

	count, err := store.CountHeroes(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.Config{DatabaseDriver: "mongo"})
	assert.Error(t, err)
}
