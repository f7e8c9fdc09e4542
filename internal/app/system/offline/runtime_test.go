package offline_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubWorker lets each test plug in its own handlers.
type stubWorker struct {
	install  func(ev *offline.ExtendableEvent)
	fetch    func(ev *offline.FetchEvent)
	errs     []error
	rejected []error
}

func (w *stubWorker) Install(ev *offline.ExtendableEvent) {
	if w.install != nil {
		w.install(ev)
	}
}
func (w *stubWorker) Activate(ev *offline.ExtendableEvent) {}
func (w *stubWorker) Fetch(ev *offline.FetchEvent) {
	if w.fetch != nil {
		w.fetch(ev)
	}
}
func (w *stubWorker) Message(ev *offline.MessageEvent) {}
func (w *stubWorker) ReportError(err error)              { w.errs = append(w.errs, err) }
func (w *stubWorker) ReportRejection(reason error) bool {
	w.rejected = append(w.rejected, reason)
	return true
}

func newStubRuntime(w *stubWorker) (*offline.Runtime, *offline.Registration) {
	reg := offline.NewRegistration()
	return offline.NewRuntime(w, reg, "v2", zap.NewNop()), reg
}

func TestRuntime_PanicIsReported(t *testing.T) {
	w := &stubWorker{fetch: func(ev *offline.FetchEvent) { panic("boom") }}
	rt, _ := newStubRuntime(w)

	_, handled, err := rt.Fetch(context.Background(), offline.NewRequest(http.MethodGet, "https://story.test/"), "")
	require.Error(t, err)
	assert.False(t, handled)
	require.Len(t, w.errs, 1)
	assert.Contains(t, w.errs[0].Error(), "boom")
}

func TestRuntime_RespondWithOnlyOnce(t *testing.T) {
	var second error
	w := &stubWorker{fetch: func(ev *offline.FetchEvent) {
		_ = ev.RespondWith(func(ctx context.Context) (*offline.Response, error) {
			return offline.NewResponse(http.StatusOK, "", "text/plain", []byte("first")), nil
		})
		second = ev.RespondWith(func(ctx context.Context) (*offline.Response, error) {
			return offline.NewResponse(http.StatusOK, "", "text/plain", []byte("second")), nil
		})
	}}
	rt, _ := newStubRuntime(w)

	resp, handled, err := rt.Fetch(context.Background(), offline.NewRequest(http.MethodGet, "https://story.test/"), "")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "first", string(resp.Body))
	assert.ErrorIs(t, second, offline.ErrAlreadyResponded)
}

func TestRuntime_NilResponseIsAnError(t *testing.T) {
	w := &stubWorker{fetch: func(ev *offline.FetchEvent) {
		_ = ev.RespondWith(func(ctx context.Context) (*offline.Response, error) { return nil, nil })
	}}
	rt, _ := newStubRuntime(w)

	_, handled, err := rt.Fetch(context.Background(), offline.NewRequest(http.MethodGet, "https://story.test/"), "")
	assert.True(t, handled)
	assert.ErrorIs(t, err, offline.ErrNoResponse)
}

func TestRuntime_FailedSideEffectIsARejection(t *testing.T) {
	sideErr := errors.New("disk full")
	w := &stubWorker{fetch: func(ev *offline.FetchEvent) {
		_ = ev.RespondWith(func(ctx context.Context) (*offline.Response, error) {
			ev.WaitUntil(func(ctx context.Context) error { return sideErr })
			return offline.NewResponse(http.StatusOK, "", "", nil), nil
		})
	}}
	rt, _ := newStubRuntime(w)

	resp, _, err := rt.Fetch(context.Background(), offline.NewRequest(http.MethodGet, "https://story.test/"), "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	require.Len(t, w.rejected, 1)
	assert.ErrorIs(t, w.rejected[0], sideErr)
}

func TestRuntime_StartWaitsWhileOtherVersionControlsClients(t *testing.T) {
	ctx := context.Background()
	w := &stubWorker{}
	rt, reg := newStubRuntime(w)
	reg.Clients().Claim(ctx, "v1")
	reg.Clients().Register("page-1", "https://story.test/")

	require.NoError(t, rt.Start(ctx))
	assert.Equal(t, offline.StateInstalled, reg.State())

	reg.SkipWaiting()
	require.NoError(t, rt.Start(ctx))
	assert.Equal(t, offline.StateActivated, reg.State())
}

func TestRuntime_InstallErrorMakesRedundant(t *testing.T) {
	w := &stubWorker{install: func(ev *offline.ExtendableEvent) {
		ev.WaitUntil(func(ctx context.Context) error { return errors.New("nope") })
	}}
	rt, reg := newStubRuntime(w)

	require.Error(t, rt.Install(context.Background()))
	assert.Equal(t, offline.StateRedundant, reg.State())
}

func TestParseStrategy(t *testing.T) {
	s, err := offline.ParseStrategy(" Network-First ")
	require.NoError(t, err)
	assert.Equal(t, offline.StrategyNetworkFirst, s)

	_, err = offline.ParseStrategy("stale-while-revalidate")
	assert.ErrorIs(t, err, offline.ErrUnknownStrategy)
}
