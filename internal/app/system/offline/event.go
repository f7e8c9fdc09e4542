package offline

import (
	"context"
	"errors"
	"sync"
)

// ExtendableEvent is the context object handed to every handler. Work
// registered with WaitUntil keeps the event alive until it returns.
type ExtendableEvent struct {
	ctx  context.Context
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

func newExtendableEvent(ctx context.Context) *ExtendableEvent {
	return &ExtendableEvent{ctx: ctx}
}

// Context returns the context the event was dispatched with.
func (e *ExtendableEvent) Context() context.Context {
	return e.ctx
}

// WaitUntil runs fn in its own goroutine and extends the event's lifetime
// until fn returns. An error from fn fails the event.
func (e *ExtendableEvent) WaitUntil(fn func(ctx context.Context) error) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := fn(e.ctx); err != nil {
			e.mu.Lock()
			e.errs = append(e.errs, err)
			e.mu.Unlock()
		}
	}()
}

// wait blocks until every WaitUntil operation has returned.
func (e *ExtendableEvent) wait() error {
	e.wg.Wait()
	e.mu.Lock()
	defer e.mu.Unlock()
	return errors.Join(e.errs...)
}

// FetchEvent is one intercepted request. It is resolved at most once.
type FetchEvent struct {
	*ExtendableEvent
	Request  *Request
	ClientID string

	mu      sync.Mutex
	respond func(ctx context.Context) (*Response, error)
}

// RespondWith overrides default network handling with the response fn
// produces. Handlers that never call it let the request fall through.
func (e *FetchEvent) RespondWith(fn func(ctx context.Context) (*Response, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.respond != nil {
		return ErrAlreadyResponded
	}
	e.respond = fn
	return nil
}

// Handled reports whether RespondWith was called.
func (e *FetchEvent) Handled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.respond != nil
}

func (e *FetchEvent) responder() func(ctx context.Context) (*Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.respond
}

// Command message types.
const (
	MsgSkipWaiting = "SKIP_WAITING"
	MsgGetVersion  = "GET_VERSION"
	MsgUpdateCache = "UPDATE_CACHE"
	MsgVersion     = "VERSION"
)

// Message is a structured command sent by a page, or a reply to one.
type Message struct {
	Type    string `json:"type"`
	Version string `json:"version,omitempty"`
}

// MessagePort is a reply channel supplied by the sender of a message.
type MessagePort struct {
	mu   sync.Mutex
	msgs []Message
}

// NewMessagePort returns an empty port.
func NewMessagePort() *MessagePort {
	return &MessagePort{}
}

// PostMessage queues msg for the sender.
func (p *MessagePort) PostMessage(msg Message) {
	p.mu.Lock()
	p.msgs = append(p.msgs, msg)
	p.mu.Unlock()
}

// Messages returns everything posted so far.
func (p *MessagePort) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.msgs...)
}

// MessageEvent carries a command from a page controller.
type MessageEvent struct {
	*ExtendableEvent
	Data     Message
	Ports    []*MessagePort
	SourceID string
}

// PushEvent carries an optional push payload.
type PushEvent struct {
	*ExtendableEvent
	Data []byte // nil when the push had no payload
}

// Text returns the payload as a string; empty when there is none.
func (e *PushEvent) Text() string {
	return string(e.Data)
}

// NotificationEvent is delivered when the user clicks a shown notification.
type NotificationEvent struct {
	*ExtendableEvent
	Notification *Notification
	Action       string
}

// SyncEvent is a background-sync request.
type SyncEvent struct {
	*ExtendableEvent
	Tag        string
	LastChance bool
}
