// internal/app/features/offlinegw/clients.go
package offlinegw

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	clientCookieName = "sm_client"
	clientIDKey      = "id"
	clientMaxAge     = 365 * 24 * 60 * 60
)

// ClientSessions identifies page controllers by a signed cookie. Each browser
// gets a stable client ID that is registered with the worker's Clients.
type ClientSessions struct {
	store   *sessions.CookieStore
	clients *offline.Clients
	log     *zap.Logger
}

// NewClientSessions builds the cookie store. In production (secure=true) the
// cookie is Secure and a key is required. In local dev over http the cookie
// must not be Secure, and an empty key is replaced by a random one, so
// client IDs do not survive a restart.
func NewClientSessions(key string, secure bool, clients *offline.Clients, logger *zap.Logger) (*ClientSessions, error) {
	hashKey := []byte(key)
	switch {
	case key == "" && secure:
		return nil, fmt.Errorf("client cookie key is empty; provide ≥32 random chars")
	case key == "":
		hashKey = securecookie.GenerateRandomKey(32)
		if hashKey == nil {
			return nil, fmt.Errorf("client cookie key: random source unavailable")
		}
		logger.Warn("client cookie key not set; using a random key for this process")
	case len(key) < 32:
		logger.Warn("client cookie key is short; 32+ chars recommended", zap.Int("length", len(key)))
	}

	store := sessions.NewCookieStore(hashKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   clientMaxAge,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &ClientSessions{store: store, clients: clients, log: logger}, nil
}

// Identify returns the client ID for r, issuing a new one if the request
// carries none, and registers the client with pageURL.
func (c *ClientSessions) Identify(w http.ResponseWriter, r *http.Request, pageURL string) string {
	sess, err := c.store.Get(r, clientCookieName)
	if err != nil {
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			c.log.Warn("client cookie invalid, issuing a new one", zap.Error(err))
		} else {
			c.log.Error("client cookie store error", zap.Error(err))
		}
	}

	id, _ := sess.Values[clientIDKey].(string)
	if id == "" {
		id = uuid.NewString()
		sess.Values[clientIDKey] = id
		if err := sess.Save(r, w); err != nil {
			c.log.Error("failed to save client cookie", zap.Error(err))
		}
	}
	c.clients.Register(id, pageURL)
	return id
}
