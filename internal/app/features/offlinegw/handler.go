// internal/app/features/offlinegw/handler.go
package offlinegw

import (
	"net/url"

	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies read by the gateway.
const maxBodyBytes = 10 << 20

// Handler is the dependency container for the offline gateway feature. It
// turns HTTP requests into worker events and writes the worker's answers back.
type Handler struct {
	Runtime     *offline.Runtime
	Caches      offline.CacheStorage
	Passthrough offline.Fetcher // default handling for same-origin requests the worker leaves alone
	Clients     *ClientSessions
	Origin      *url.URL
	Log         *zap.Logger
}

// NewHandler constructs a new Handler.
func NewHandler(rt *offline.Runtime, caches offline.CacheStorage, passthrough offline.Fetcher, clients *ClientSessions, origin *url.URL, logger *zap.Logger) *Handler {
	return &Handler{
		Runtime:     rt,
		Caches:      caches,
		Passthrough: passthrough,
		Clients:     clients,
		Origin:      origin,
		Log:         logger,
	}
}
