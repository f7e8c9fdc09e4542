package cachestore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	cachestore "github.com/dalemusser/storymaker/internal/app/store/caches"
	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, prefix string) (*cachestore.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s, err := cachestore.NewRedis(client, prefix)
	require.NoError(t, err)
	return s, mr
}

func TestRedisStore(t *testing.T) {
	testStorage(t, func(t *testing.T) offline.CacheStorage {
		s, _ := newRedisStore(t, "")
		return s
	})
}

func TestRedisStore_KeysLiveUnderPrefix(t *testing.T) {
	s, mr := newRedisStore(t, "test:")
	put(t, mustOpen(t, s, "v1"), "https://story.test/", "shell")

	assert.True(t, mr.Exists("test:names"))
	assert.True(t, mr.Exists("test:entries:v1"))
	assert.True(t, mr.Exists("test:order:v1"))

	_, err := s.Delete(context.Background(), "v1")
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:entries:v1"))
	assert.False(t, mr.Exists("test:order:v1"))
}

func TestNewRedis_RequiresClient(t *testing.T) {
	_, err := cachestore.NewRedis(nil, "")
	assert.Error(t, err)
}
