package offline

import (
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Worker handles the events every strategy must handle.
type Worker interface {
	Install(ev *ExtendableEvent)
	Activate(ev *ExtendableEvent)
	Fetch(ev *FetchEvent)
	Message(ev *MessageEvent)
}

// SyncHandler is implemented by workers that listen for background sync.
type SyncHandler interface {
	Sync(ev *SyncEvent)
}

// PushHandler is implemented by workers that listen for push messages.
type PushHandler interface {
	Push(ev *PushEvent)
}

// NotificationClickHandler is implemented by workers that react to clicks on
// the notifications they show.
type NotificationClickHandler interface {
	NotificationClick(ev *NotificationEvent)
}

// ErrorReporter is implemented by workers that observe uncaught errors.
// ReportRejection returns true to mark the rejection handled.
type ErrorReporter interface {
	ReportError(err error)
	ReportRejection(reason error) bool
}

// Strategy selects how fetches are answered.
type Strategy string

const (
	StrategyCacheFirst   Strategy = "cache-first"
	StrategyNetworkFirst Strategy = "network-first"
)

// ParseStrategy maps a configuration value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyCacheFirst:
		return StrategyCacheFirst, nil
	case StrategyNetworkFirst:
		return StrategyNetworkFirst, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Config is everything a worker needs. Version names the current cache.
type Config struct {
	Version  string
	Strategy Strategy

	// Origin is the scope the worker serves, e.g. https://storymaker.example.
	Origin string

	// Manifest lists the URLs cached at install. Nil means the strategy default.
	Manifest []string

	// AllowedOrigins are the external URL prefixes a cache-first worker
	// intercepts. Nil means DefaultAllowedOrigins.
	AllowedOrigins []string

	Caches       CacheStorage
	Network      Fetcher
	Registration *Registration
	Log          *zap.Logger
}

// scope is the state shared by both strategies.
type scope struct {
	version  string
	origin   *url.URL
	manifest []*Request
	caches   CacheStorage
	network  Fetcher
	reg      *Registration
	log      *zap.Logger
}

func newScope(cfg Config, defaultManifest []string) (scope, error) {
	if cfg.Version == "" {
		return scope{}, fmt.Errorf("offline: version is required")
	}
	if cfg.Caches == nil || cfg.Network == nil || cfg.Registration == nil {
		return scope{}, fmt.Errorf("offline: caches, network, and registration are required")
	}
	origin, err := url.Parse(cfg.Origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return scope{}, fmt.Errorf("offline: invalid origin %q", cfg.Origin)
	}
	manifest := cfg.Manifest
	if manifest == nil {
		manifest = defaultManifest
	}
	reqs, err := ResolveManifest(origin, manifest)
	if err != nil {
		return scope{}, err
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return scope{
		version:  cfg.Version,
		origin:   origin,
		manifest: reqs,
		caches:   cfg.Caches,
		network:  cfg.Network,
		reg:      cfg.Registration,
		log:      log,
	}, nil
}

// New builds the worker for cfg.Strategy.
func New(cfg Config) (Worker, error) {
	switch cfg.Strategy {
	case StrategyCacheFirst:
		return NewCacheFirst(cfg)
	case StrategyNetworkFirst:
		return NewNetworkFirst(cfg)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Strategy)
}
