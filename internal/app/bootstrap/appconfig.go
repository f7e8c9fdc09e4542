// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging, and request limits.
// AppConfig carries everything the offline gateway needs on top of that.
type AppConfig struct {
	// Offline worker
	CacheVersion   string   // name of the current cache (e.g., daco-storymaker-v1.0.0)
	Strategy       string   // "cache-first" or "network-first"
	PublicOrigin   string   // origin pages are loaded from (e.g., https://storymaker.example)
	UpstreamURL    string   // where same-origin requests are actually served (blank means PublicOrigin)
	AllowedOrigins []string // external URL prefixes a cache-first worker intercepts
	ManifestFile   string   // optional YAML manifest overriding the built-in URL list

	// Cache storage
	CacheStore    string // "memory", "mongo", "sqlite", or "redis"
	MongoURI      string // MongoDB connection string
	MongoDatabase string // Database name within MongoDB
	SQLitePath    string // SQLite file for the sqlite store
	RedisAddr     string // host:port for the redis store
	RedisPrefix   string // key namespace for the redis store

	// Client cookie
	ClientCookieKey string // secret for signing the page-client cookie

	// Network
	FetchTimeout    time.Duration // per-fetch deadline; zero means none
	RefreshInterval time.Duration // network-first background refresh; zero disables it
}
