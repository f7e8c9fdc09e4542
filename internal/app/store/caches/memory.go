// internal/app/store/caches/memory.go
package cachestore

import (
	"context"
	"sync"

	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/dalemusser/storymaker/internal/domain/models"
)

// MemoryStore keeps caches in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	names  []string
	caches map[string]*memoryCache
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{caches: make(map[string]*memoryCache)}
}

// Open returns the named cache, creating it if absent.
func (s *MemoryStore) Open(_ context.Context, name string) (offline.Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.caches[name]; ok {
		return c, nil
	}
	c := &memoryCache{name: name, entries: make(map[string]models.CacheEntry)}
	s.caches[name] = c
	s.names = append(s.names, name)
	return c, nil
}

// Has reports whether the named cache exists.
func (s *MemoryStore) Has(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.caches[name]
	return ok, nil
}

// Delete removes the named cache.
func (s *MemoryStore) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.caches[name]; !ok {
		return false, nil
	}
	delete(s.caches, name)
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			break
		}
	}
	return true, nil
}

// Keys lists cache names in creation order.
func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.names...), nil
}

type memoryCache struct {
	name    string
	mu      sync.RWMutex
	order   []string
	entries map[string]models.CacheEntry
}

func (c *memoryCache) Match(_ context.Context, req *offline.Request) (*offline.Response, error) {
	key, err := offline.CacheKey(req)
	if err != nil {
		return nil, offline.ErrNotFound
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, offline.ErrNotFound
	}
	return toResponse(e).Clone(), nil
}

func (c *memoryCache) Put(_ context.Context, req *offline.Request, resp *offline.Response) error {
	key, err := offline.CacheKey(req)
	if err != nil {
		return err
	}
	e := toEntry(c.name, key, resp)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = e
	return nil
}

func (c *memoryCache) Delete(_ context.Context, req *offline.Request) (bool, error) {
	key, err := offline.CacheKey(req)
	if err != nil {
		return false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return false, nil
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (c *memoryCache) Keys(_ context.Context) ([]*offline.Request, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*offline.Request, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, toRequest(c.entries[k]))
	}
	return out, nil
}
