// internal/domain/models/cacheentry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CacheName records that a named cache exists. Empty caches are real caches,
// so the name is stored separately from the entries.
type CacheName struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Name      string             `bson:"name" json:"name"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// CacheEntry is one stored response snapshot inside a named cache.
// Key is the request identity (the fragment-free URL of a GET request).
type CacheEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	CacheName string             `bson:"cache_name" json:"cache_name"`
	Key       string             `bson:"key" json:"key"`

	// Request identity
	Method string `bson:"method" json:"method"`
	URL    string `bson:"url" json:"url"`

	// Response snapshot
	Status     int                 `bson:"status" json:"status"`
	StatusText string              `bson:"status_text,omitempty" json:"status_text,omitempty"`
	Header     map[string][]string `bson:"header,omitempty" json:"header,omitempty"`
	Body       []byte              `bson:"body,omitempty" json:"body,omitempty"`
	Type       string              `bson:"type" json:"type"`

	StoredAt time.Time `bson:"stored_at" json:"stored_at"`
}
