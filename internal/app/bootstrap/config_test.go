package bootstrap

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validAppConfig() AppConfig {
	return AppConfig{
		CacheVersion:    "daco-storymaker-v1.0.0",
		Strategy:        "cache-first",
		PublicOrigin:    "https://story.test",
		CacheStore:      "memory",
		MongoURI:        "mongodb://localhost:27017",
		MongoDatabase:   "storymaker",
		SQLitePath:      "./data/cache.db",
		RedisAddr:       "localhost:6379",
		ClientCookieKey: "test-cookie-key-0123456789ABCDEFGHIJ",
	}
}

func TestValidateConfig(t *testing.T) {
	dev := &config.CoreConfig{Env: "dev"}
	prod := &config.CoreConfig{Env: "prod"}

	tests := []struct {
		name    string
		core    *config.CoreConfig
		mutate  func(c *AppConfig)
		wantErr string
	}{
		{name: "valid", core: dev, mutate: func(c *AppConfig) {}},
		{name: "network_first", core: dev, mutate: func(c *AppConfig) { c.Strategy = "network-first" }},
		{name: "empty_version", core: dev, mutate: func(c *AppConfig) { c.CacheVersion = "" }, wantErr: "cache_version"},
		{name: "bad_strategy", core: dev, mutate: func(c *AppConfig) { c.Strategy = "cache-only" }, wantErr: "unknown strategy"},
		{name: "relative_origin", core: dev, mutate: func(c *AppConfig) { c.PublicOrigin = "/app" }, wantErr: "public_origin"},
		{name: "bad_upstream", core: dev, mutate: func(c *AppConfig) { c.UpstreamURL = "ftp://files" }, wantErr: "upstream_url"},
		{name: "missing_manifest", core: dev, mutate: func(c *AppConfig) { c.ManifestFile = "/nonexistent/manifest.yaml" }, wantErr: "manifest_file"},
		{name: "negative_timeout", core: dev, mutate: func(c *AppConfig) { c.FetchTimeout = -time.Second }, wantErr: "negative"},
		{name: "prod_with_key", core: prod, mutate: func(c *AppConfig) {}},
		{name: "dev_without_key", core: dev, mutate: func(c *AppConfig) { c.ClientCookieKey = "" }},
		{name: "prod_without_key", core: prod, mutate: func(c *AppConfig) { c.ClientCookieKey = "" }, wantErr: "production"},
		{name: "prod_short_key", core: prod, mutate: func(c *AppConfig) { c.ClientCookieKey = "short" }, wantErr: "production"},
		{name: "unknown_store", core: dev, mutate: func(c *AppConfig) { c.CacheStore = "s3" }, wantErr: "unknown cache_store"},
		{name: "sqlite_without_path", core: dev, mutate: func(c *AppConfig) { c.CacheStore = "sqlite"; c.SQLitePath = "" }, wantErr: "sqlite_path"},
		{name: "redis_without_addr", core: dev, mutate: func(c *AppConfig) { c.CacheStore = "redis"; c.RedisAddr = "" }, wantErr: "redis_addr"},
		{name: "mongo_bad_uri", core: dev, mutate: func(c *AppConfig) { c.CacheStore = "mongo"; c.MongoURI = "not-a-uri" }, wantErr: "MongoDB URI"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validAppConfig()
			tc.mutate(&cfg)
			err := ValidateConfig(tc.core, cfg, testLogger())
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidateConfig_ManifestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	if err := os.WriteFile(path, []byte("urls:\n  - ./\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := validAppConfig()
	cfg.ManifestFile = path
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, testLogger()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.test , ,https://b.test,")
	want := []string{"https://a.test", "https://b.test"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitList: got %v, want %v", got, want)
	}
	if splitList("") != nil {
		t.Error("expected nil for an empty list")
	}
}
