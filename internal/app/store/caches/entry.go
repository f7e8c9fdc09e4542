// internal/app/store/caches/entry.go
//
// Package cachestore holds the backends that persist the offline worker's
// named caches: in memory, MongoDB, SQLite, and Redis. Every backend
// implements offline.CacheStorage.
package cachestore

import (
	"net/http"
	"time"

	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/dalemusser/storymaker/internal/domain/models"
)

// Backend names accepted by the cache_store setting.
const (
	KindMemory = "memory"
	KindMongo  = "mongo"
	KindSQLite = "sqlite"
	KindRedis  = "redis"
)

// Kinds lists every supported backend.
var Kinds = []string{KindMemory, KindMongo, KindSQLite, KindRedis}

// toEntry snapshots resp as it will be stored under key. One store serves
// every client, so cookies set for the requesting client are dropped.
func toEntry(cacheName, key string, resp *offline.Response) models.CacheEntry {
	resp = resp.Shareable()
	return models.CacheEntry{
		CacheName:  cacheName,
		Key:        key,
		Method:     http.MethodGet,
		URL:        key,
		Status:     resp.Status,
		StatusText: resp.StatusText,
		Header:     map[string][]string(resp.Header),
		Body:       resp.Body,
		Type:       resp.Type,
		StoredAt:   time.Now().UTC(),
	}
}

// toResponse rebuilds the stored response.
func toResponse(e models.CacheEntry) *offline.Response {
	h := http.Header(e.Header).Clone()
	if h == nil {
		h = make(http.Header)
	}
	return &offline.Response{
		Status:     e.Status,
		StatusText: e.StatusText,
		Header:     h,
		Body:       e.Body,
		Type:       e.Type,
		URL:        e.URL,
	}
}

// toRequest rebuilds the request a stored entry is keyed by.
func toRequest(e models.CacheEntry) *offline.Request {
	return offline.NewRequest(e.Method, e.URL)
}
