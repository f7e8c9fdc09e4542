package offline

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Runtime is the host for one worker. It delivers one event at a time per
// call, waits for everything the handler registered with WaitUntil, and
// keeps the registration's lifecycle state current.
//
// Fetch events may run concurrently; they share the cache and accept
// last-write-wins on the same key.
type Runtime struct {
	worker  Worker
	reg     *Registration
	log     *zap.Logger
	version string

	lifecycle sync.Mutex // serializes install and activate
}

// NewRuntime wraps worker. version is reported by Status.
func NewRuntime(worker Worker, reg *Registration, version string, logger *zap.Logger) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runtime{worker: worker, reg: reg, log: logger, version: version}
}

// Registration returns the registration the runtime drives.
func (rt *Runtime) Registration() *Registration {
	return rt.reg
}

// Version returns the cache version of the running worker.
func (rt *Runtime) Version() string {
	return rt.version
}

// dispatch calls fn and turns a panic into a reported error.
func (rt *Runtime) dispatch(name string, fn func()) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s handler panic: %v", name, p)
			rt.ReportError(err)
		}
	}()
	fn()
	return nil
}

// Install runs the install event. A failure leaves the registration redundant.
func (rt *Runtime) Install(ctx context.Context) error {
	rt.lifecycle.Lock()
	defer rt.lifecycle.Unlock()

	rt.reg.setState(StateInstalling)
	ev := newExtendableEvent(ctx)
	err := rt.dispatch("install", func() { rt.worker.Install(ev) })
	if werr := ev.wait(); werr != nil {
		err = werr
	}
	if err != nil {
		rt.reg.setState(StateRedundant)
		rt.log.Error("offline worker install failed", zap.Error(err))
		return fmt.Errorf("install: %w", err)
	}
	rt.reg.setState(StateInstalled)
	return nil
}

// Activate runs the activate event.
func (rt *Runtime) Activate(ctx context.Context) error {
	rt.lifecycle.Lock()
	defer rt.lifecycle.Unlock()

	rt.reg.setState(StateActivating)
	ev := newExtendableEvent(ctx)
	err := rt.dispatch("activate", func() { rt.worker.Activate(ev) })
	if werr := ev.wait(); werr != nil {
		err = werr
	}
	if err != nil {
		rt.log.Error("offline worker activate failed", zap.Error(err))
		return fmt.Errorf("activate: %w", err)
	}
	rt.reg.setState(StateActivated)
	return nil
}

// Start installs the worker and activates it unless it has to wait: a
// worker that did not skip waiting stays installed while clients are still
// controlled by another version.
func (rt *Runtime) Start(ctx context.Context) error {
	if err := rt.Install(ctx); err != nil {
		return err
	}
	clients := rt.reg.Clients()
	others := clients.Len() - clients.ControlledBy(rt.version) - clients.ControlledBy("")
	if others > 0 && !rt.reg.SkipWaitingRequested() {
		rt.log.Info("offline worker waiting", zap.Int("controlled_clients", others))
		return nil
	}
	return rt.Activate(ctx)
}

// Fetch runs a fetch event. handled is false when the worker did not
// override the request, in which case the caller performs default handling.
func (rt *Runtime) Fetch(ctx context.Context, req *Request, clientID string) (resp *Response, handled bool, err error) {
	ev := &FetchEvent{
		ExtendableEvent: newExtendableEvent(ctx),
		Request:         req,
		ClientID:        clientID,
	}
	if err := rt.dispatch("fetch", func() { rt.worker.Fetch(ev) }); err != nil {
		return nil, false, err
	}

	respond := ev.responder()
	if respond == nil {
		if werr := ev.wait(); werr != nil {
			rt.ReportRejection(werr)
		}
		return nil, false, nil
	}

	var rerr error
	if perr := rt.dispatch("respondWith", func() { resp, rerr = respond(ev.Context()) }); perr != nil {
		rerr = perr
	}
	if werr := ev.wait(); werr != nil {
		rt.ReportRejection(werr)
	}
	if rerr != nil {
		return nil, true, rerr
	}
	if resp == nil {
		return nil, true, ErrNoResponse
	}
	return resp, true, nil
}

// Message delivers msg with a single reply port and returns the replies.
func (rt *Runtime) Message(ctx context.Context, msg Message, sourceID string) ([]Message, error) {
	port := NewMessagePort()
	ev := &MessageEvent{
		ExtendableEvent: newExtendableEvent(ctx),
		Data:            msg,
		Ports:           []*MessagePort{port},
		SourceID:        sourceID,
	}
	err := rt.dispatch("message", func() { rt.worker.Message(ev) })
	if werr := ev.wait(); werr != nil && err == nil {
		err = werr
	}
	return port.Messages(), err
}

// Push delivers a push payload and returns the notifications shown while
// handling it. Workers without a push handler ignore it.
func (rt *Runtime) Push(ctx context.Context, data []byte) ([]*Notification, error) {
	h, ok := rt.worker.(PushHandler)
	if !ok {
		return nil, nil
	}
	mark := rt.reg.notificationMark()
	ev := &PushEvent{ExtendableEvent: newExtendableEvent(ctx), Data: data}
	err := rt.dispatch("push", func() { h.Push(ev) })
	if werr := ev.wait(); werr != nil && err == nil {
		err = werr
	}
	return rt.reg.notificationsSince(mark), err
}

// NotificationClick delivers a click on n and returns the windows opened.
func (rt *Runtime) NotificationClick(ctx context.Context, n *Notification, action string) ([]string, error) {
	h, ok := rt.worker.(NotificationClickHandler)
	if !ok {
		return nil, nil
	}
	clients := rt.reg.Clients()
	mark := clients.openedMark()
	ev := &NotificationEvent{ExtendableEvent: newExtendableEvent(ctx), Notification: n, Action: action}
	err := rt.dispatch("notificationclick", func() { h.NotificationClick(ev) })
	if werr := ev.wait(); werr != nil && err == nil {
		err = werr
	}
	return clients.openedSince(mark), err
}

// Sync delivers a background-sync event.
func (rt *Runtime) Sync(ctx context.Context, tag string, lastChance bool) error {
	h, ok := rt.worker.(SyncHandler)
	if !ok {
		return nil
	}
	ev := &SyncEvent{ExtendableEvent: newExtendableEvent(ctx), Tag: tag, LastChance: lastChance}
	err := rt.dispatch("sync", func() { h.Sync(ev) })
	if werr := ev.wait(); werr != nil && err == nil {
		err = werr
	}
	return err
}

// ReportError hands an uncaught error to the worker, or logs it.
func (rt *Runtime) ReportError(err error) {
	if r, ok := rt.worker.(ErrorReporter); ok {
		r.ReportError(err)
		return
	}
	rt.log.Error("uncaught offline worker error", zap.Error(err))
}

// ReportRejection hands a failed background operation to the worker. It
// returns whether the worker marked it handled.
func (rt *Runtime) ReportRejection(reason error) bool {
	if r, ok := rt.worker.(ErrorReporter); ok {
		return r.ReportRejection(reason)
	}
	rt.log.Warn("unhandled offline worker rejection", zap.Error(reason))
	return false
}

// Status is a snapshot of the runtime for diagnostics.
type Status struct {
	Version string   `json:"version"`
	State   State    `json:"state"`
	Caches  []string `json:"caches"`
	Clients int      `json:"clients"`
}

// Status reports the runtime state and the caches currently stored.
func (rt *Runtime) Status(ctx context.Context, caches CacheStorage) (Status, error) {
	names, err := caches.Keys(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Version: rt.version,
		State:   rt.reg.State(),
		Caches:  names,
		Clients: rt.reg.Clients().Len(),
	}, nil
}
