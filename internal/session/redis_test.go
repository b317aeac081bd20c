package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/herodex/internal/models"
)

func TestRedisStoreIntegration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("set REDIS_URL to run redis session tests")
	}
	ctx := context.Background()
	store, err := NewRedisStore(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sess := &Session{ID: uuid.NewString(), Identity: &models.Identity{ID: "acc-1", Username: "bruce"}}
	sess.FlashSuccess("hello")
	require.NoError(t, store.Put(ctx, sess, time.Minute))

	loaded, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "bruce", loaded.Identity.Username)
	assert.Equal(t, "hello", loaded.Flash.Success)

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
