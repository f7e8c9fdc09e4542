// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	cachestore "github.com/dalemusser/storymaker/internal/app/store/caches"
	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the cache backend selected by cache_store. Caches is always
// set; the client matching the backend is set alongside it.
type DBDeps struct {
	Caches offline.CacheStorage

	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	SQLite        *cachestore.SQLiteStore
	Redis         redis.UniversalClient
}
