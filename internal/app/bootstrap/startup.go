// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/dalemusser/storymaker/internal/app/system/timeouts"
	"github.com/dalemusser/storymaker/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// gateway is what Startup builds and BuildHandler and Shutdown use.
type gateway struct {
	runtime   *offline.Runtime
	fetcher   *offline.HTTPFetcher
	origin    *url.URL
	refresher *workers.CacheRefresh
}

// lifecycle carries the gateway from Startup to BuildHandler and Shutdown.
type lifecycle struct {
	mu sync.Mutex
	gw *gateway
}

func (lc *lifecycle) current() *gateway {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.gw
}

// Startup builds the offline worker, installs and activates it, and starts
// the background refresh worker when one is configured.
func (lc *lifecycle) Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		t := timeouts.Current()
		logger.Info("timeouts overridden from environment",
			zap.Int("count", n),
			zap.Duration("ping", t.Ping),
			zap.Duration("event", t.Event),
			zap.Duration("install", t.Install),
			zap.Duration("refresh", t.Refresh))
	}

	gw, err := buildGateway(appCfg, deps, logger)
	if err != nil {
		return err
	}

	ictx, cancel := context.WithTimeout(ctx, timeouts.Install())
	defer cancel()
	if err := gw.runtime.Start(ictx); err != nil {
		return err
	}
	logger.Info("offline worker ready",
		zap.String("version", appCfg.CacheVersion),
		zap.String("strategy", appCfg.Strategy),
		zap.String("state", string(gw.runtime.Registration().State())))

	if appCfg.RefreshInterval > 0 && appCfg.Strategy == string(offline.StrategyNetworkFirst) {
		gw.refresher = workers.NewCacheRefresh(gw.runtime, logger, appCfg.RefreshInterval)
		gw.refresher.Start()
	}

	lc.mu.Lock()
	lc.gw = gw
	lc.mu.Unlock()
	return nil
}

// buildGateway wires the worker to its cache backend and network.
func buildGateway(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*gateway, error) {
	strategy, err := offline.ParseStrategy(appCfg.Strategy)
	if err != nil {
		return nil, err
	}
	origin, err := url.Parse(appCfg.PublicOrigin)
	if err != nil {
		return nil, fmt.Errorf("public_origin: %w", err)
	}
	var upstream *url.URL
	if appCfg.UpstreamURL != "" {
		if upstream, err = url.Parse(appCfg.UpstreamURL); err != nil {
			return nil, fmt.Errorf("upstream_url: %w", err)
		}
	}

	var manifest []string
	if appCfg.ManifestFile != "" {
		if manifest, err = offline.LoadManifestFile(appCfg.ManifestFile); err != nil {
			return nil, err
		}
	}

	fetcher := offline.NewHTTPFetcher(origin, upstream, appCfg.FetchTimeout)
	reg := offline.NewRegistration()
	w, err := offline.New(offline.Config{
		Version:        appCfg.CacheVersion,
		Strategy:       strategy,
		Origin:         appCfg.PublicOrigin,
		Manifest:       manifest,
		AllowedOrigins: appCfg.AllowedOrigins,
		Caches:         deps.Caches,
		Network:        fetcher,
		Registration:   reg,
		Log:            logger.Named("offline"),
	})
	if err != nil {
		return nil, err
	}

	return &gateway{
		runtime: offline.NewRuntime(w, reg, appCfg.CacheVersion, logger.Named("offline")),
		fetcher: fetcher,
		origin:  origin,
	}, nil
}
