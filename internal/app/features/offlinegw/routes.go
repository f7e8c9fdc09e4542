// internal/app/features/offlinegw/routes.go
package offlinegw

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the offline gateway, mounted at /.
// Gateway endpoints live under /_sw; every other path is intercepted.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(h.recoverer)
	r.Use(h.proxyForm)

	r.Route("/_sw", func(sr chi.Router) {
		sr.Get("/status", h.ServeStatus)
		sr.Post("/message", h.ServeMessage)
		sr.Post("/push", h.ServePush)
		sr.Post("/notificationclick", h.ServeNotificationClick)
		sr.Post("/sync", h.ServeSync)
	})

	r.HandleFunc("/*", h.ServeIntercept)
	return r
}

// proxyForm sends absolute-form requests for other hosts straight to the
// worker so their paths never reach the gateway's own endpoints. The worker
// may answer them from its cache or allow-list; anything else is refused.
func (h *Handler) proxyForm(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.IsAbs() && !strings.EqualFold(r.URL.Host, h.Origin.Host) {
			h.ServeIntercept(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoverer reports handler panics to the worker's error hook instead of
// letting them reach the server.
func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				h.Runtime.ReportError(fmt.Errorf("gateway panic on %s %s: %v", r.Method, r.URL.Path, p))
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
