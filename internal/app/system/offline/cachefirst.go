package offline

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// CacheFirst answers from the cache before the network. Misses are fetched
// and, when they are plain same-origin 200s, stored for next time. With the
// network down, navigations get the cached shell and everything else a 503.
type CacheFirst struct {
	scope
	allowed []string
	shell   *Request
}

// NewCacheFirst builds a cache-first worker.
func NewCacheFirst(cfg Config) (*CacheFirst, error) {
	s, err := newScope(cfg, DefaultCacheFirstManifest)
	if err != nil {
		return nil, err
	}
	allowed := cfg.AllowedOrigins
	if allowed == nil {
		allowed = DefaultAllowedOrigins
	}
	shell, err := ResolveManifest(s.origin, []string{"./index.html"})
	if err != nil {
		return nil, err
	}
	return &CacheFirst{scope: s, allowed: allowed, shell: shell[0]}, nil
}

// Install caches the manifest. A failed batch is logged and installation
// proceeds with whatever the cache holds.
func (w *CacheFirst) Install(ev *ExtendableEvent) {
	w.log.Info("offline worker installing", zap.String("version", w.version))
	ev.WaitUntil(func(ctx context.Context) error {
		if err := w.populate(ctx); err != nil {
			w.log.Warn("failed to cache resources", zap.Error(err))
		}
		return nil
	})
	w.reg.SkipWaiting()
}

// Activate removes stale caches and takes control of open pages.
func (w *CacheFirst) Activate(ev *ExtendableEvent) {
	w.log.Info("offline worker activating", zap.String("version", w.version))
	ev.WaitUntil(w.evictStale)
}

func (w *CacheFirst) intercepts(req *Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	if SameOrigin(w.origin, req.URL) {
		return true
	}
	for _, prefix := range w.allowed {
		if strings.HasPrefix(req.URL, prefix) {
			return true
		}
	}
	return false
}

// Fetch serves GET requests for the app origin and the allow-listed font
// origins. Everything else falls through untouched.
func (w *CacheFirst) Fetch(ev *FetchEvent) {
	req := ev.Request
	if !w.intercepts(req) {
		return
	}

	_ = ev.RespondWith(func(ctx context.Context) (*Response, error) {
		cached, err := MatchAll(ctx, w.caches, req)
		if err == nil {
			w.log.Debug("serving from cache", zap.String("url", req.URL))
			return cached, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		w.log.Debug("fetching from network", zap.String("url", req.URL))
		resp, err := w.network.Fetch(ctx, req.Clone())
		if err != nil {
			return w.fallback(ctx, req, err), nil
		}
		if resp.Status != http.StatusOK || resp.Type != TypeBasic {
			return resp, nil
		}

		clone := resp.Clone()
		ev.WaitUntil(func(ctx context.Context) error {
			return w.store(ctx, req, clone)
		})
		return resp, nil
	})
}

// fallback answers a request whose network fetch failed.
func (w *CacheFirst) fallback(ctx context.Context, req *Request, cause error) *Response {
	w.log.Info("fetch failed, serving offline fallback",
		zap.String("url", req.URL), zap.Error(cause))

	if req.IsNavigation() {
		shell, err := MatchAll(ctx, w.caches, w.shell)
		if err == nil {
			return shell
		}
		w.log.Warn("offline shell not cached", zap.String("url", w.shell.URL), zap.Error(err))
	}
	return NewResponse(http.StatusServiceUnavailable, "Service Unavailable", "text/plain",
		[]byte("Offline - Resource not available"))
}

// Message handles SKIP_WAITING and GET_VERSION.
func (w *CacheFirst) Message(ev *MessageEvent) {
	w.log.Debug("offline worker received message", zap.String("type", ev.Data.Type))

	switch typ := ev.Data.Type; typ {
	case "":
		return
	case MsgSkipWaiting:
		w.reg.SkipWaiting()
	case MsgGetVersion:
		if len(ev.Ports) == 0 {
			w.log.Warn("GET_VERSION without a reply port")
			return
		}
		ev.Ports[0].PostMessage(Message{Type: MsgVersion, Version: w.version})
	default:
		w.log.Info("unknown message type", zap.String("type", typ))
	}
}

// Sync only logs; no background work is defined.
func (w *CacheFirst) Sync(ev *SyncEvent) {
	w.log.Info("background sync event", zap.String("tag", ev.Tag))
}

// Push only logs.
func (w *CacheFirst) Push(ev *PushEvent) {
	w.log.Info("push notification received", zap.Int("payload_bytes", len(ev.Data)))
}

// ReportError logs an uncaught error.
func (w *CacheFirst) ReportError(err error) {
	w.log.Error("offline worker error", zap.Error(err))
}

// ReportRejection logs an unhandled rejection and marks it handled.
func (w *CacheFirst) ReportRejection(reason error) bool {
	w.log.Error("offline worker unhandled rejection", zap.Error(reason))
	return true
}
