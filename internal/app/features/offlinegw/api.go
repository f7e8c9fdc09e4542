// internal/app/features/offlinegw/api.go
package offlinegw

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/dalemusser/storymaker/internal/app/system/htmlsanitize"
	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/dalemusser/storymaker/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// maxNotificationRunes bounds push payloads shown as notification bodies.
const maxNotificationRunes = 500

type messageResponse struct {
	Replies []offline.Message `json:"replies"`
}

// ServeMessage handles POST /_sw/message.
//
//	{ "type":"GET_VERSION" }  ->  { "replies":[{ "type":"VERSION", "version":"…" }] }
func (h *Handler) ServeMessage(w http.ResponseWriter, r *http.Request) {
	var msg offline.Message
	if err := decodeJSON(r, &msg); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid message")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Event())
	defer cancel()

	clientID := h.Clients.Identify(w, r, r.Header.Get("Referer"))
	replies, err := h.Runtime.Message(ctx, msg, clientID)
	if err != nil {
		h.Log.Error("offline worker message failed", zap.String("type", msg.Type), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "message failed")
		return
	}
	if replies == nil {
		replies = []offline.Message{}
	}
	writeJSON(w, http.StatusOK, messageResponse{Replies: replies})
}

type notificationsResponse struct {
	Notifications []*offline.Notification `json:"notifications"`
}

// ServePush handles POST /_sw/push. The body is the raw push payload; markup
// is stripped before it can reach a notification.
func (h *Handler) ServePush(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if !htmlsanitize.IsPlainText(string(raw)) {
		h.Log.Debug("stripping markup from push payload", zap.Int("bytes", len(raw)))
	}
	text := htmlsanitize.Truncate(htmlsanitize.PlainText(string(raw)), maxNotificationRunes)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Event())
	defer cancel()

	var data []byte
	if text != "" {
		data = []byte(text)
	}
	shown, err := h.Runtime.Push(ctx, data)
	if err != nil {
		h.Log.Error("offline worker push failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "push failed")
		return
	}
	if shown == nil {
		shown = []*offline.Notification{}
	}
	writeJSON(w, http.StatusOK, notificationsResponse{Notifications: shown})
}

type clickRequest struct {
	ID     uint64 `json:"id"`
	Action string `json:"action"`
}

type clickResponse struct {
	Opened []string `json:"opened"`
}

// ServeNotificationClick handles POST /_sw/notificationclick. ID selects a
// notification returned by /_sw/push; only recent ones are retained.
func (h *Handler) ServeNotificationClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid click")
		return
	}
	n, ok := h.Runtime.Registration().Notification(req.ID)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no such notification")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Event())
	defer cancel()

	opened, err := h.Runtime.NotificationClick(ctx, n, req.Action)
	if err != nil {
		h.Log.Error("offline worker notification click failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "click failed")
		return
	}
	if opened == nil {
		opened = []string{}
	}
	writeJSON(w, http.StatusOK, clickResponse{Opened: opened})
}

type syncRequest struct {
	Tag        string `json:"tag"`
	LastChance bool   `json:"last_chance"`
}

// ServeSync handles POST /_sw/sync.
func (h *Handler) ServeSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := decodeJSON(r, &req); err != nil || req.Tag == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid sync")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Event())
	defer cancel()

	if err := h.Runtime.Sync(ctx, req.Tag, req.LastChance); err != nil {
		h.Log.Error("offline worker sync failed", zap.String("tag", req.Tag), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "sync failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeStatus handles GET /_sw/status.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	st, err := h.Runtime.Status(ctx, h.Caches)
	if err != nil {
		h.Log.Error("offline worker status failed", zap.Error(err))
		writeJSONError(w, http.StatusServiceUnavailable, "cache storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
