// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	cachestore "github.com/dalemusser/storymaker/internal/app/store/caches"
	"github.com/dalemusser/storymaker/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the cache backend named by cache_store.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	switch appCfg.CacheStore {
	case cachestore.KindMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(appCfg.MongoURI))
		if err != nil {
			return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
		}
		pctx, cancel := context.WithTimeout(ctx, timeouts.Ping())
		defer cancel()
		if err := client.Ping(pctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
		}
		db := client.Database(appCfg.MongoDatabase)
		logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))
		return DBDeps{Caches: cachestore.NewMongo(db), MongoClient: client, MongoDatabase: db}, nil

	case cachestore.KindSQLite:
		if dir := filepath.Dir(appCfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return DBDeps{}, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		store, err := cachestore.NewSQLite(appCfg.SQLitePath)
		if err != nil {
			return DBDeps{}, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("opened SQLite cache store", zap.String("path", appCfg.SQLitePath))
		return DBDeps{Caches: store, SQLite: store}, nil

	case cachestore.KindRedis:
		client := redis.NewClient(&redis.Options{Addr: appCfg.RedisAddr})
		pctx, cancel := context.WithTimeout(ctx, timeouts.Ping())
		defer cancel()
		if err := client.Ping(pctx).Err(); err != nil {
			_ = client.Close()
			return DBDeps{}, fmt.Errorf("ping redis: %w", err)
		}
		store, err := cachestore.NewRedis(client, appCfg.RedisPrefix)
		if err != nil {
			_ = client.Close()
			return DBDeps{}, err
		}
		logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))
		return DBDeps{Caches: store, Redis: client}, nil
	}

	logger.Info("using in-memory cache store; caches are lost on restart")
	return DBDeps{Caches: cachestore.NewMemory()}, nil
}

// EnsureSchema creates the indexes the Mongo backend relies on. The SQLite
// backend creates its tables when opened; the others need nothing.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoDatabase == nil {
		return nil
	}
	if err := cachestore.EnsureIndexes(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure cache indexes failed", zap.Error(err))
		return err
	}
	return nil
}
