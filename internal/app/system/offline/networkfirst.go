package offline

import (
	"context"
	_ "embed"
	"encoding/base64"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:embed offline.html
var offlinePage []byte

// Notification defaults for the network-first worker.
const (
	NotificationTitle       = "DACO Storymaker"
	DefaultNotificationBody = "داستان تازه‌ای در انتظار شماست"
)

const iconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 96 96"><rect width="96" height="96" rx="20" fill="#f59e0b"/><path d="M28 24h28a12 12 0 0 1 12 12v36H40a12 12 0 0 1-12-12z" fill="#1f2937"/></svg>`

const badgeSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 72 72"><circle cx="36" cy="36" r="32" fill="#000"/><path d="M24 20h20a8 8 0 0 1 8 8v24H32a8 8 0 0 1-8-8z" fill="#fff"/></svg>`

var (
	notificationIcon  = svgDataURL(iconSVG)
	notificationBadge = svgDataURL(badgeSVG)
	vibratePattern    = []int{100, 50, 100}
)

func svgDataURL(svg string) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

// refreshConcurrency bounds parallel re-fetches during UPDATE_CACHE.
const refreshConcurrency = 4

// NetworkFirst always asks the network first and keeps the cache current with
// every 200 it sees. The cache is consulted only when the network fails.
type NetworkFirst struct {
	scope
}

// NewNetworkFirst builds a network-first worker.
func NewNetworkFirst(cfg Config) (*NetworkFirst, error) {
	s, err := newScope(cfg, DefaultNetworkFirstManifest)
	if err != nil {
		return nil, err
	}
	return &NetworkFirst{scope: s}, nil
}

// Install caches the manifest. A failed batch fails the installation.
func (w *NetworkFirst) Install(ev *ExtendableEvent) {
	w.log.Info("offline worker installing", zap.String("version", w.version))
	ev.WaitUntil(func(ctx context.Context) error {
		if err := w.populate(ctx); err != nil {
			return err
		}
		w.reg.SkipWaiting()
		return nil
	})
}

// Activate removes stale caches and takes control of open pages.
func (w *NetworkFirst) Activate(ev *ExtendableEvent) {
	w.log.Info("offline worker activating", zap.String("version", w.version))
	ev.WaitUntil(w.evictStale)
}

// Fetch serves every same-origin request; cross-origin requests fall through.
func (w *NetworkFirst) Fetch(ev *FetchEvent) {
	req := ev.Request
	if !SameOrigin(w.origin, req.URL) {
		return
	}

	_ = ev.RespondWith(func(ctx context.Context) (*Response, error) {
		c, err := w.caches.Open(ctx, w.version)
		if err != nil {
			return nil, err
		}

		resp, err := w.network.Fetch(ctx, req.Clone())
		if err == nil {
			clone := resp.Clone()
			if resp.Status == http.StatusOK {
				ev.WaitUntil(func(ctx context.Context) error {
					return c.Put(ctx, req, clone)
				})
			}
			return resp, nil
		}

		w.log.Debug("network failed, trying cache", zap.String("url", req.URL), zap.Error(err))
		cached, merr := c.Match(ctx, req)
		if merr == nil {
			return cached, nil
		}
		if !errors.Is(merr, ErrNotFound) {
			return nil, merr
		}
		if req.Destination == DestinationDocument {
			return NewResponse(http.StatusOK, "", "text/html", append([]byte(nil), offlinePage...)), nil
		}
		return NewResponse(http.StatusRequestTimeout, "", "text/plain", []byte("Network error occurred")), nil
	})
}

// Message handles SKIP_WAITING and UPDATE_CACHE.
func (w *NetworkFirst) Message(ev *MessageEvent) {
	switch typ := ev.Data.Type; typ {
	case "":
		return
	case MsgSkipWaiting:
		w.reg.SkipWaiting()
	case MsgUpdateCache:
		ev.WaitUntil(w.refresh)
	default:
		w.log.Info("unknown message type", zap.String("type", typ))
	}
}

// refresh re-fetches every key in the current cache and overwrites entries
// whose fresh response is a 200. Per-key failures leave the old entry alone.
func (w *NetworkFirst) refresh(ctx context.Context) error {
	c, err := w.caches.Open(ctx, w.version)
	if err != nil {
		return err
	}
	keys, err := c.Keys(ctx)
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(refreshConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			resp, err := w.network.Fetch(ctx, key.Clone())
			if err != nil {
				w.log.Debug("cache refresh fetch failed", zap.String("url", key.URL), zap.Error(err))
				return nil
			}
			if resp.Status != http.StatusOK {
				return nil
			}
			if err := c.Put(ctx, key, resp); err != nil {
				w.log.Debug("cache refresh store failed", zap.String("url", key.URL), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	w.log.Info("cache refreshed", zap.String("cache", w.version), zap.Int("keys", len(keys)))
	return nil
}

// Sync only logs; no background work is defined.
func (w *NetworkFirst) Sync(ev *SyncEvent) {
	w.log.Info("background sync event", zap.String("tag", ev.Tag))
}

// Push shows the storymaker notification. The payload text, when present,
// replaces the default body.
func (w *NetworkFirst) Push(ev *PushEvent) {
	body := DefaultNotificationBody
	if text := ev.Text(); text != "" {
		body = text
	}
	n := &Notification{
		Title:   NotificationTitle,
		Body:    body,
		Icon:    notificationIcon,
		Badge:   notificationBadge,
		Vibrate: append([]int(nil), vibratePattern...),
	}
	ev.WaitUntil(func(ctx context.Context) error {
		return w.reg.ShowNotification(ctx, n)
	})
}

// NotificationClick closes the notification and opens the app root.
func (w *NetworkFirst) NotificationClick(ev *NotificationEvent) {
	if ev.Notification != nil {
		ev.Notification.Close()
	}
	ev.WaitUntil(func(ctx context.Context) error {
		return w.reg.Clients().OpenWindow(ctx, "/")
	})
}
