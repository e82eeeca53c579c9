package redis

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/ds124wfegd/assetrouter/internal/entity"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a live server when REDIS_ADDR is set.
func newTestRepository(t *testing.T, maxBytes int64) *CacheRepository {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	return NewCacheRepository(client, maxBytes)
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepository(t, 1024)
	ctx := context.Background()
	key := "test/banner-960w.avif"
	t.Cleanup(func() { repo.Delete(ctx, key) })

	h := http.Header{}
	h.Set("ETag", `"abc"`)
	require.NoError(t, repo.Set(ctx, key, &entity.CachedObject{Status: 200, Header: h, Body: []byte("avif")}, time.Minute))

	got, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 200, got.Status)
	assert.Equal(t, `"abc"`, got.Header.Get("ETag"))
	assert.Equal(t, []byte("avif"), got.Body)
}

func TestCacheRepositoryMiss(t *testing.T) {
	repo := newTestRepository(t, 1024)

	_, err := repo.Get(context.Background(), "test/never-stored.jpg")
	assert.ErrorIs(t, err, entity.ErrCacheMiss)
}

func TestCacheRepositoryRejectsLargeObjects(t *testing.T) {
	repo := NewCacheRepository(nil, 4)

	err := repo.Set(context.Background(), "big.jpg", &entity.CachedObject{Body: []byte("too large")}, time.Minute)
	assert.ErrorIs(t, err, entity.ErrObjectTooLarge)
}
