package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/dalemusser/storymaker/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Pinger checks that a cache backend is reachable.
type Pinger func(ctx context.Context) error

// Handler holds dependencies needed for health checks.
type Handler struct {
	Runtime *offline.Runtime
	Store   string // cache_store backend name
	Ping    Pinger // nil for backends with nothing to ping (memory)
	Log     *zap.Logger
}

// NewHandler constructs a health Handler.
func NewHandler(rt *offline.Runtime, store string, ping Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		Runtime: rt,
		Store:   store,
		Ping:    ping,
		Log:     logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status  string        `json:"status"`
	Store   string        `json:"store"`
	Backend string        `json:"backend"`
	Worker  *workerStatus `json:"worker,omitempty"`
	Message string        `json:"message,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type workerStatus struct {
	Version string        `json:"version"`
	State   offline.State `json:"state"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "store":"mongo", "backend":"connected",
//	  "worker":{"version":"daco-storymaker-v1.0.0","state":"activated"} }
//
// On backend failure, or a worker that failed to install: 503 and
//
//	{ "status":"error", "message":"…", "error":"…" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:  "ok",
		Store:   h.Store,
		Backend: "connected",
	}
	if h.Runtime != nil {
		resp.Worker = &workerStatus{
			Version: h.Runtime.Version(),
			State:   h.Runtime.Registration().State(),
		}
	}

	// Check cache backend
	if h.Ping != nil {
		if err := h.Ping(ctx); err != nil {
			h.Log.Error("health-check: cache backend ping failed", zap.String("store", h.Store), zap.Error(err))
			resp.Status = "error"
			resp.Backend = "disconnected"
			resp.Message = "Cache backend unavailable"
			resp.Error = err.Error()
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
	}

	if resp.Worker != nil && resp.Worker.State == offline.StateRedundant {
		resp.Status = "error"
		resp.Message = "Offline worker failed to install"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	_ = json.NewEncoder(w).Encode(resp)
}
