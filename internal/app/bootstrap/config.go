// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	cachestore "github.com/dalemusser/storymaker/internal/app/store/caches"
	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)


// appConfigKeys defines the configuration keys for the storymaker gateway.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: cache_version, strategy, etc.
//   - Environment variables: STORYMAKER_CACHE_VERSION, STORYMAKER_STRATEGY, etc.
//   - Command-line flags: --cache_version, --strategy, etc.
var appConfigKeys = []config.AppKey{
	// Offline worker
	{Name: "cache_version", Default: "daco-storymaker-v1.0.0", Desc: "Name of the current cache; older caches are deleted on activate"},
	{Name: "strategy", Default: string(offline.StrategyCacheFirst), Desc: "Fetch strategy: 'cache-first' or 'network-first'"},
	{Name: "public_origin", Default: "http://localhost:3000", Desc: "Origin the storymaker pages are loaded from"},
	{Name: "upstream_url", Default: "", Desc: "Where same-origin requests are served (blank means public_origin)"},
	{Name: "allowed_origins", Default: strings.Join(offline.DefaultAllowedOrigins, ","), Desc: "Comma-separated external URL prefixes the cache-first worker intercepts"},
	{Name: "manifest_file", Default: "", Desc: "YAML file listing the URLs cached at install (blank uses the built-in list)"},

	// Cache storage
	{Name: "cache_store", Default: cachestore.KindMemory, Desc: "Cache backend: 'memory', 'mongo', 'sqlite', or 'redis'"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "storymaker", Desc: "MongoDB database name"},
	{Name: "sqlite_path", Default: "./data/storymaker-cache.db", Desc: "SQLite file for the sqlite backend"},
	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis address for the redis backend"},
	{Name: "redis_prefix", Default: "storymaker:cache:", Desc: "Redis key prefix"},

	// Client cookie
	{Name: "client_cookie_key", Default: "", Desc: "Signing key for the page-client cookie (required in production; random per process otherwise)"},

	// Network
	{Name: "fetch_timeout", Default: "0s", Desc: "Deadline for a single upstream fetch (0 means none)"},
	{Name: "refresh_interval", Default: "0s", Desc: "Network-first background cache refresh interval (0 disables it)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, STORYMAKER_* for app), and flags,
// merged with precedence: flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "STORYMAKER", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		CacheVersion:   strings.TrimSpace(appValues.String("cache_version")),
		Strategy:       appValues.String("strategy"),
		PublicOrigin:   strings.TrimRight(appValues.String("public_origin"), "/"),
		UpstreamURL:    appValues.String("upstream_url"),
		AllowedOrigins: splitList(appValues.String("allowed_origins")),
		ManifestFile:   appValues.String("manifest_file"),

		CacheStore:    strings.ToLower(strings.TrimSpace(appValues.String("cache_store"))),
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),
		SQLitePath:    appValues.String("sqlite_path"),
		RedisAddr:     appValues.String("redis_addr"),
		RedisPrefix:   appValues.String("redis_prefix"),

		ClientCookieKey: appValues.String("client_cookie_key"),

		FetchTimeout:    appValues.Duration("fetch_timeout", 0),
		RefreshInterval: appValues.Duration("refresh_interval", 0),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Everything that can be checked without connecting is checked here, so a
// bad origin, strategy, or manifest aborts startup before any backend is touched.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if appCfg.CacheVersion == "" {
		return fmt.Errorf("cache_version must not be empty")
	}
	if _, err := offline.ParseStrategy(appCfg.Strategy); err != nil {
		return err
	}
	if err := validateOrigin("public_origin", appCfg.PublicOrigin); err != nil {
		return err
	}
	if appCfg.UpstreamURL != "" {
		if err := validateOrigin("upstream_url", appCfg.UpstreamURL); err != nil {
			return err
		}
	}
	if appCfg.ManifestFile != "" {
		if _, err := offline.LoadManifestFile(appCfg.ManifestFile); err != nil {
			return fmt.Errorf("manifest_file: %w", err)
		}
	}
	if appCfg.FetchTimeout < 0 || appCfg.RefreshInterval < 0 {
		return fmt.Errorf("fetch_timeout and refresh_interval must not be negative")
	}
	if appCfg.RefreshInterval > 0 && appCfg.RefreshInterval < time.Minute {
		logger.Warn("refresh_interval is very short", zap.Duration("refresh_interval", appCfg.RefreshInterval))
	}

	if coreCfg != nil && coreCfg.Env == "prod" && len(appCfg.ClientCookieKey) < 32 {
		return fmt.Errorf("client_cookie_key must be at least 32 characters in production")
	}

	switch appCfg.CacheStore {
	case cachestore.KindMemory:
	case cachestore.KindMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if appCfg.MongoDatabase == "" {
			return fmt.Errorf("mongo_database must not be empty")
		}
	case cachestore.KindSQLite:
		if appCfg.SQLitePath == "" {
			return fmt.Errorf("sqlite_path must not be empty")
		}
	case cachestore.KindRedis:
		if appCfg.RedisAddr == "" {
			return fmt.Errorf("redis_addr must not be empty")
		}
	default:
		return fmt.Errorf("unknown cache_store %q (want one of %s)", appCfg.CacheStore, strings.Join(cachestore.Kinds, ", "))
	}

	return nil
}

func validateOrigin(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || !slices.Contains([]string{"http", "https"}, u.Scheme) {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}

// splitList parses a comma-separated setting, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
