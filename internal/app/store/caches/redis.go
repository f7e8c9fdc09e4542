// internal/app/store/caches/redis.go
package cachestore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/dalemusser/storymaker/internal/domain/models"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "storymaker:cache:"

// RedisStore keeps caches in Redis so several gateway instances can share them.
//
// Layout, under Prefix:
//   - names: sorted set of cache names scored by creation time
//   - entries:<name>: hash of key to JSON-encoded entry
//   - order:<name>: sorted set of keys scored by first insertion
//   - seq: counter that supplies the scores
type RedisStore struct {
	Client redis.UniversalClient
	Prefix string
}

// NewRedis creates a Redis-backed store. An empty prefix uses the default namespace.
func NewRedis(client redis.UniversalClient, prefix string) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{Client: client, Prefix: prefix}, nil
}

func (s *RedisStore) namesKey() string             { return s.Prefix + "names" }
func (s *RedisStore) entriesKey(name string) string { return s.Prefix + "entries:" + name }
func (s *RedisStore) orderKey(name string) string   { return s.Prefix + "order:" + name }

// next returns a score later than every score handed out before. Clock
// scores collide when two writes land within float64 precision.
func (s *RedisStore) next(ctx context.Context) (float64, error) {
	n, err := s.Client.Incr(ctx, s.Prefix+"seq").Result()
	return float64(n), err
}

func (s *RedisStore) Open(ctx context.Context, name string) (offline.Cache, error) {
	score, err := s.next(ctx)
	if err != nil {
		return nil, err
	}
	err = s.Client.ZAddNX(ctx, s.namesKey(), redis.Z{Score: score, Member: name}).Err()
	if err != nil {
		return nil, err
	}
	return &redisCache{store: s, name: name}, nil
}

func (s *RedisStore) Has(ctx context.Context, name string) (bool, error) {
	err := s.Client.ZScore(ctx, s.namesKey(), name).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) (bool, error) {
	var removed *redis.IntCmd
	_, err := s.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		removed = p.ZRem(ctx, s.namesKey(), name)
		p.Del(ctx, s.entriesKey(name), s.orderKey(name))
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed.Val() > 0, nil
}

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	return s.Client.ZRange(ctx, s.namesKey(), 0, -1).Result()
}

type redisCache struct {
	store *RedisStore
	name  string
}

func (c *redisCache) Match(ctx context.Context, req *offline.Request) (*offline.Response, error) {
	key, err := offline.CacheKey(req)
	if err != nil {
		return nil, offline.ErrNotFound
	}
	raw, err := c.store.Client.HGet(ctx, c.store.entriesKey(c.name), key).Bytes()
	if err == redis.Nil {
		return nil, offline.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var e models.CacheEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return toResponse(e), nil
}

func (c *redisCache) Put(ctx context.Context, req *offline.Request, resp *offline.Response) error {
	key, err := offline.CacheKey(req)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(toEntry(c.name, key, resp))
	if err != nil {
		return err
	}
	score, err := c.store.next(ctx)
	if err != nil {
		return err
	}
	_, err = c.store.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, c.store.entriesKey(c.name), key, raw)
		p.ZAddNX(ctx, c.store.orderKey(c.name), redis.Z{Score: score, Member: key})
		return nil
	})
	return err
}

func (c *redisCache) Delete(ctx context.Context, req *offline.Request) (bool, error) {
	key, err := offline.CacheKey(req)
	if err != nil {
		return false, nil
	}
	var removed *redis.IntCmd
	_, err = c.store.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		removed = p.HDel(ctx, c.store.entriesKey(c.name), key)
		p.ZRem(ctx, c.store.orderKey(c.name), key)
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed.Val() > 0, nil
}

func (c *redisCache) Keys(ctx context.Context) ([]*offline.Request, error) {
	keys, err := c.store.Client.ZRange(ctx, c.store.orderKey(c.name), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*offline.Request, 0, len(keys))
	for _, k := range keys {
		out = append(out, toRequest(models.CacheEntry{Method: "GET", URL: k}))
	}
	return out, nil
}
