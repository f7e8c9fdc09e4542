// internal/app/features/offlinegw/intercept.go
package offlinegw

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"go.uber.org/zap"
)

// ServeIntercept runs every request that is not a gateway endpoint through
// the worker's fetch event, the way a controlled page's requests are.
func (h *Handler) ServeIntercept(w http.ResponseWriter, r *http.Request) {
	req, err := h.toRequest(r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	clientID := ""
	if req.IsNavigation() {
		clientID = h.Clients.Identify(w, r, req.URL)
	}

	resp, handled, err := h.Runtime.Fetch(r.Context(), req, clientID)
	if err != nil {
		h.Log.Error("offline worker fetch failed", zap.String("url", req.URL), zap.Error(err))
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	if !handled {
		// Default handling for other origins belongs to the browser. The
		// gateway only forwards its own origin, so it is never an open proxy.
		if !offline.SameOrigin(h.Origin, req.URL) {
			h.Log.Warn("refusing to forward cross-origin request", zap.String("url", req.URL))
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		resp, err = h.Passthrough.Fetch(r.Context(), req)
		if err != nil {
			h.Log.Warn("passthrough fetch failed", zap.String("url", req.URL), zap.Error(err))
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
	}
	writeResponse(w, resp)
}

// toRequest describes r as the worker sees it. Absolute-form request targets
// (the gateway used as a forward proxy) keep their own origin; everything
// else is addressed to the public origin.
func (h *Handler) toRequest(r *http.Request) (*offline.Request, error) {
	rawURL := h.Origin.Scheme + "://" + h.Origin.Host + r.URL.RequestURI()
	if r.URL.IsAbs() {
		rawURL = r.URL.String()
	}

	req := offline.NewRequest(r.Method, rawURL)
	req.Header = r.Header.Clone()
	req.Mode = r.Header.Get("Sec-Fetch-Mode")
	req.Destination = r.Header.Get("Sec-Fetch-Dest")
	if req.Mode == "" {
		req.Mode = guessMode(r)
	}
	if req.Destination == "" && req.Mode == offline.ModeNavigate {
		req.Destination = offline.DestinationDocument
	}

	if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if err != nil {
			return nil, err
		}
		if len(body) > maxBodyBytes {
			return nil, errors.New("request body too large")
		}
		req.Body = body
	}
	return req, nil
}

// guessMode classifies requests from clients that send no fetch metadata.
func guessMode(r *http.Request) string {
	if r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html") {
		return offline.ModeNavigate
	}
	return offline.ModeNoCORS
}

func writeResponse(w http.ResponseWriter, resp *offline.Response) {
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
