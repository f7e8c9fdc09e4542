// internal/app/system/workers/cacherefresh.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/dalemusser/storymaker/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Messenger delivers a message to the offline worker.
type Messenger interface {
	Message(ctx context.Context, msg offline.Message, sourceID string) ([]offline.Message, error)
}

// CacheRefresh is a background worker that periodically asks the offline
// worker to refresh its cache, as a page would by posting UPDATE_CACHE.
type CacheRefresh struct {
	worker   Messenger
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewCacheRefresh creates a new cache refresh worker.
//
// Parameters:
//   - worker: the runtime the UPDATE_CACHE message is delivered to
//   - logger: zap logger for logging
//   - interval: how often to refresh (e.g., 15 minutes)
func NewCacheRefresh(worker Messenger, logger *zap.Logger, interval time.Duration) *CacheRefresh {
	return &CacheRefresh{
		worker:   worker,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background refresh loop.
func (w *CacheRefresh) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("cache refresh worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. It is safe to
// call more than once.
func (w *CacheRefresh) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("cache refresh worker stopped")
	})
}

func (w *CacheRefresh) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.refresh()
		}
	}
}

func (w *CacheRefresh) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Refresh())
	defer cancel()

	start := time.Now()
	if _, err := w.worker.Message(ctx, offline.Message{Type: offline.MsgUpdateCache}, ""); err != nil {
		w.log.Error("cache refresh failed", zap.Error(err))
		return
	}
	w.log.Debug("cache refreshed", zap.Duration("took", time.Since(start)))
}
