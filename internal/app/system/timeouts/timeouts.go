// Package timeouts provides centralized timeout values for the gateway.
//
// Timeouts can be configured at startup using Configure(). If not configured,
// the defaults below are used.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and backend connectivity
//   - Event: one message, push, sync, or notification click delivered to the worker
//   - Install: the install and activate events run at startup
//   - Refresh: one scheduled cache refresh
package timeouts

import (
	"os"
	"sync"
	"time"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing    = 2 * time.Second
	DefaultEvent   = 30 * time.Second
	DefaultInstall = 60 * time.Second
	DefaultRefresh = 2 * time.Minute
)

var mu sync.RWMutex

var (
	ping    = DefaultPing
	event   = DefaultEvent
	install = DefaultInstall
	refresh = DefaultRefresh
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Event returns the timeout for a single non-fetch worker event.
// Fetch events are bounded by the request context and fetch_timeout instead.
func Event() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return event
}

// Install returns the timeout for installing and activating the worker.
func Install() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return install
}

// Refresh returns the timeout for one background cache refresh.
func Refresh() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return refresh
}

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Ping    time.Duration
	Event   time.Duration
	Install time.Duration
	Refresh time.Duration
}

// Configure sets custom timeout values. Zero values in the config are ignored,
// keeping the current (or default) values. Call it during startup before
// handlers are registered.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Event > 0 {
		event = cfg.Event
	}
	if cfg.Install > 0 {
		install = cfg.Install
	}
	if cfg.Refresh > 0 {
		refresh = cfg.Refresh
	}
}

// Reset restores all timeouts to their default values.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	event = DefaultEvent
	install = DefaultInstall
	refresh = DefaultRefresh
}

// ConfigureFromEnv reads TIMEOUT_PING, TIMEOUT_EVENT, TIMEOUT_INSTALL and
// TIMEOUT_REFRESH (e.g. "2s", "500ms"). Unset or invalid values are ignored.
//
// Returns the number of timeouts successfully configured from environment.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	configured := 0
	for _, v := range []struct {
		env string
		dst *time.Duration
	}{
		{"TIMEOUT_PING", &ping},
		{"TIMEOUT_EVENT", &event},
		{"TIMEOUT_INSTALL", &install},
		{"TIMEOUT_REFRESH", &refresh},
	} {
		s := os.Getenv(v.env)
		if s == "" {
			continue
		}
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			*v.dst = d
			configured++
		}
	}
	return configured
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{
		Ping:    ping,
		Event:   event,
		Install: install,
		Refresh: refresh,
	}
}
