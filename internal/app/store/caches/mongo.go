// internal/app/store/caches/mongo.go
package cachestore

import (
	"context"
	"time"

	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/dalemusser/storymaker/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the Mongo backend.
const (
	namesCollection   = "cache_names"
	entriesCollection = "cache_entries"
)

// MongoStore provides access to the cache_names and cache_entries collections.
// Entries of every named cache share one collection, scoped by cache_name.
type MongoStore struct {
	names   *mongo.Collection
	entries *mongo.Collection
}

// NewMongo creates a new Mongo-backed cache store.
func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{
		names:   db.Collection(namesCollection),
		entries: db.Collection(entriesCollection),
	}
}

// EnsureIndexes creates the unique indexes the store relies on for upserts.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(namesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_cache_name"),
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(entriesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "cache_name", Value: 1}, {Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_cache_key"),
	})
	return err
}

// Open returns the named cache. The name document is upserted so that an
// empty cache still shows up in Keys.
func (s *MongoStore) Open(ctx context.Context, name string) (offline.Cache, error) {
	filter := bson.M{"name": name}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"name":       name,
			"created_at": time.Now().UTC(),
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.names.UpdateOne(ctx, filter, update, opts); err != nil {
		return nil, err
	}
	return &mongoCache{name: name, c: s.entries}, nil
}

// Has checks if the named cache exists.
func (s *MongoStore) Has(ctx context.Context, name string) (bool, error) {
	count, err := s.names.CountDocuments(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes the named cache and all of its entries.
func (s *MongoStore) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.names.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	if _, err := s.entries.DeleteMany(ctx, bson.M{"cache_name": name}); err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// Keys lists cache names in creation order.
func (s *MongoStore) Keys(ctx context.Context) ([]string, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.names.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.CacheName
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out, nil
}

type mongoCache struct {
	name string
	c    *mongo.Collection
}

func (m *mongoCache) Match(ctx context.Context, req *offline.Request) (*offline.Response, error) {
	key, err := offline.CacheKey(req)
	if err != nil {
		return nil, offline.ErrNotFound
	}
	var e models.CacheEntry
	err = m.c.FindOne(ctx, bson.M{"cache_name": m.name, "key": key}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return nil, offline.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toResponse(e), nil
}

// Put upserts the entry. The _id is only set on insert, so sorting by _id
// keeps first-insertion order across overwrites.
func (m *mongoCache) Put(ctx context.Context, req *offline.Request, resp *offline.Response) error {
	key, err := offline.CacheKey(req)
	if err != nil {
		return err
	}
	e := toEntry(m.name, key, resp)
	filter := bson.M{"cache_name": m.name, "key": key}
	update := bson.M{
		"$set": bson.M{
			"cache_name":  e.CacheName,
			"key":         e.Key,
			"method":      e.Method,
			"url":         e.URL,
			"status":      e.Status,
			"status_text": e.StatusText,
			"header":      e.Header,
			"body":        e.Body,
			"type":        e.Type,
			"stored_at":   e.StoredAt,
		},
		"$setOnInsert": bson.M{
			"_id": primitive.NewObjectID(),
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err = m.c.UpdateOne(ctx, filter, update, opts)
	return err
}

func (m *mongoCache) Delete(ctx context.Context, req *offline.Request) (bool, error) {
	key, err := offline.CacheKey(req)
	if err != nil {
		return false, nil
	}
	res, err := m.c.DeleteOne(ctx, bson.M{"cache_name": m.name, "key": key})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (m *mongoCache) Keys(ctx context.Context) ([]*offline.Request, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"method": 1, "url": 1})
	cur, err := m.c.Find(ctx, bson.M{"cache_name": m.name}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.CacheEntry
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]*offline.Request, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRequest(r))
	}
	return out, nil
}
