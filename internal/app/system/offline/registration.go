package offline

import (
	"context"
	"encoding/json"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// State is the lifecycle state of a worker registration.
type State string

const (
	StateParsed     State = "parsed"
	StateInstalling State = "installing"
	StateInstalled  State = "installed" // waiting to activate
	StateActivating State = "activating"
	StateActivated  State = "activated"
	StateRedundant  State = "redundant"
)

// Default registry bounds. A long-running gateway sees an unbounded number
// of pages and pushes; only the most recent are kept.
const (
	DefaultMaxClients       = 10000
	DefaultMaxNotifications = 256
	maxOpenedWindows        = DefaultMaxNotifications
)

// Limits bounds the registries a Registration keeps. Zero fields take the
// defaults.
type Limits struct {
	Clients       int // least recently seen clients are evicted first
	Notifications int // oldest notifications are evicted first
}

// Registration is the host side of a worker: its lifecycle state, the page
// controllers it may control, and the notifications it has shown.
type Registration struct {
	mu            sync.Mutex
	state         State
	skipWaiting   bool
	clients       *Clients
	notifications *lru.Cache[uint64, *Notification]
	lastShown     uint64
}

// NewRegistration returns a registration in the parsed state with the
// default limits.
func NewRegistration() *Registration {
	return NewRegistrationWithLimits(Limits{})
}

// NewRegistrationWithLimits returns a registration in the parsed state.
func NewRegistrationWithLimits(l Limits) *Registration {
	if l.Notifications <= 0 {
		l.Notifications = DefaultMaxNotifications
	}
	shown, _ := lru.New[uint64, *Notification](l.Notifications)
	return &Registration{
		state:         StateParsed,
		clients:       NewClients(l.Clients),
		notifications: shown,
	}
}

// State returns the current lifecycle state.
func (r *Registration) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Registration) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// SkipWaiting asks for the worker to activate as soon as it is installed,
// without waiting for existing clients to close. Calling it again, or after
// activation, has no effect.
func (r *Registration) SkipWaiting() {
	r.mu.Lock()
	r.skipWaiting = true
	r.mu.Unlock()
}

// SkipWaitingRequested reports whether SkipWaiting has been called.
func (r *Registration) SkipWaitingRequested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipWaiting
}

// Clients returns the page controllers known to the registration.
func (r *Registration) Clients() *Clients {
	return r.clients
}

// Notification is a notification shown by the worker. ID is assigned when
// it is shown.
type Notification struct {
	ID      uint64
	Title   string
	Body    string
	Icon    string
	Badge   string
	Vibrate []int

	mu     sync.Mutex
	closed bool
}

type notificationJSON struct {
	ID      uint64 `json:"id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Icon    string `json:"icon,omitempty"`
	Badge   string `json:"badge,omitempty"`
	Vibrate []int  `json:"vibrate,omitempty"`
	Closed  bool   `json:"closed"`
}

// MarshalJSON encodes a snapshot taken under the notification's lock.
func (n *Notification) MarshalJSON() ([]byte, error) {
	n.mu.Lock()
	v := notificationJSON{
		ID:      n.ID,
		Title:   n.Title,
		Body:    n.Body,
		Icon:    n.Icon,
		Badge:   n.Badge,
		Vibrate: n.Vibrate,
		Closed:  n.closed,
	}
	n.mu.Unlock()
	return json.Marshal(v)
}

// Close dismisses the notification.
func (n *Notification) Close() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
}

// IsClosed reports whether Close was called.
func (n *Notification) IsClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

// ShowNotification assigns n an ID and records it as shown.
func (r *Registration) ShowNotification(_ context.Context, n *Notification) error {
	r.mu.Lock()
	r.lastShown++
	id := r.lastShown
	r.mu.Unlock()

	n.mu.Lock()
	n.ID = id
	n.mu.Unlock()
	r.notifications.Add(id, n)
	return nil
}

// Notification returns a retained notification by ID.
func (r *Registration) Notification(id uint64) (*Notification, bool) {
	return r.notifications.Peek(id)
}

// Notifications returns the retained notifications, oldest first.
func (r *Registration) Notifications() []*Notification {
	return r.notificationsSince(0)
}

func (r *Registration) notificationMark() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastShown
}

// notificationsSince returns retained notifications with an ID above mark.
// Entries are only added and peeked, so the cache order is the order shown.
func (r *Registration) notificationsSince(mark uint64) []*Notification {
	var out []*Notification
	for _, n := range r.notifications.Values() {
		if n.ID > mark {
			out = append(out, n)
		}
	}
	return out
}

// Client is a page controller: an open window or tab of the app.
type Client struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Controller string `json:"controller,omitempty"` // version controlling it, empty if none
}

// Clients tracks page controllers by ID, keeping the most recently seen.
type Clients struct {
	mu     sync.Mutex
	byID   *lru.Cache[string, *Client]
	active string // version of the claiming worker

	opened      []string
	openedTotal int
}

// NewClients returns an empty registry holding at most max clients. A
// non-positive max means DefaultMaxClients.
func NewClients(max int) *Clients {
	if max <= 0 {
		max = DefaultMaxClients
	}
	byID, _ := lru.New[string, *Client](max)
	return &Clients{byID: byID}
}

// Register records a page controller, or refreshes it if already known.
// Pages that load after a worker has claimed the registration are
// controlled by it immediately.
func (c *Clients) Register(id, url string) Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.byID.Get(id); ok {
		if url != "" {
			cl.URL = url
		}
		return *cl
	}
	cl := &Client{ID: id, URL: url, Controller: c.active}
	c.byID.Add(id, cl)
	return *cl
}

// Get returns the client with the given ID.
func (c *Clients) Get(id string) (Client, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl, ok := c.byID.Peek(id)
	if !ok {
		return Client{}, false
	}
	return *cl, true
}

// Len returns the number of clients retained.
func (c *Clients) Len() int {
	return c.byID.Len()
}

// Claim makes version the controller of every known client and of every
// client registered later. It returns the number of clients claimed.
func (c *Clients) Claim(_ context.Context, version string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = version
	all := c.byID.Values()
	for _, cl := range all {
		cl.Controller = version
	}
	return len(all)
}

// ControlledBy counts clients whose controller is version.
func (c *Clients) ControlledBy(version string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, cl := range c.byID.Values() {
		if cl.Controller == version {
			n++
		}
	}
	return n
}

// All returns every retained client, least recently seen first.
func (c *Clients) All() []Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	vals := c.byID.Values()
	out := make([]Client, 0, len(vals))
	for _, cl := range vals {
		out = append(out, *cl)
	}
	return out
}

// OpenWindow asks the host to open url in a new window.
func (c *Clients) OpenWindow(_ context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.opened) == maxOpenedWindows {
		copy(c.opened, c.opened[1:])
		c.opened = c.opened[:len(c.opened)-1]
	}
	c.opened = append(c.opened, url)
	c.openedTotal++
	return nil
}

// Opened returns the most recent URLs passed to OpenWindow.
func (c *Clients) Opened() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.opened...)
}

func (c *Clients) openedMark() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openedTotal
}

// openedSince returns the URLs opened after mark that are still retained.
func (c *Clients) openedSince(mark int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.openedTotal - mark
	if n > len(c.opened) {
		n = len(c.opened)
	}
	if n <= 0 {
		return nil
	}
	return append([]string(nil), c.opened[len(c.opened)-n:]...)
}
