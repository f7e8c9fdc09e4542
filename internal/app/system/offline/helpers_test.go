package offline_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	cachestore "github.com/dalemusser/storymaker/internal/app/store/caches"
	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/dalemusser/storymaker/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testOrigin  = "https://story.test"
	testVersion = "daco-storymaker-v1.0.0"
)

type harness struct {
	rt      *offline.Runtime
	reg     *offline.Registration
	caches  *cachestore.MemoryStore
	network *testutil.FakeNetwork
}

func newHarness(t *testing.T, strategy offline.Strategy, manifest []string) *harness {
	t.Helper()
	h := &harness{
		reg:     offline.NewRegistration(),
		caches:  cachestore.NewMemory(),
		network: testutil.NewFakeNetwork(),
	}
	w, err := offline.New(offline.Config{
		Version:      testVersion,
		Strategy:     strategy,
		Origin:       testOrigin,
		Manifest:     manifest,
		Caches:       h.caches,
		Network:      h.network,
		Registration: h.reg,
		Log:          zap.NewNop(),
	})
	require.NoError(t, err)
	h.rt = offline.NewRuntime(w, h.reg, testVersion, zap.NewNop())
	return h
}

// serveManifest makes every manifest URL fetchable.
func (h *harness) serveManifest(t *testing.T, entries []string) {
	t.Helper()
	reqs, err := offline.ResolveManifest(mustOrigin(t), entries)
	require.NoError(t, err)
	for _, r := range reqs {
		typ := offline.TypeCORS
		if offline.SameOrigin(mustOrigin(t), r.URL) {
			typ = offline.TypeBasic
		}
		h.network.Serve(r.URL, typ, "text/plain", "asset "+r.URL)
	}
}

// seed stores body under rawURL in the current cache.
func (h *harness) seed(t *testing.T, rawURL, body string) {
	t.Helper()
	c, err := h.caches.Open(context.Background(), testVersion)
	require.NoError(t, err)
	resp := offline.NewResponse(http.StatusOK, "", "text/plain", []byte(body))
	resp.Type = offline.TypeBasic
	require.NoError(t, c.Put(context.Background(), offline.NewRequest(http.MethodGet, rawURL), resp))
}

func (h *harness) cached(t *testing.T, rawURL string) (*offline.Response, bool) {
	t.Helper()
	c, err := h.caches.Open(context.Background(), testVersion)
	require.NoError(t, err)
	resp, err := c.Match(context.Background(), offline.NewRequest(http.MethodGet, rawURL))
	if err != nil {
		require.ErrorIs(t, err, offline.ErrNotFound)
		return nil, false
	}
	return resp, true
}

func mustOrigin(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse(testOrigin)
	require.NoError(t, err)
	return u
}

func navigate(rawURL string) *offline.Request {
	req := offline.NewRequest(http.MethodGet, rawURL)
	req.Mode = offline.ModeNavigate
	req.Destination = offline.DestinationDocument
	return req
}
