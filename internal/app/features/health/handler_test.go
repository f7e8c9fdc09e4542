package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/storymaker/internal/app/features/health"
	cachestore "github.com/dalemusser/storymaker/internal/app/store/caches"
	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/dalemusser/storymaker/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type healthBody struct {
	Status  string `json:"status"`
	Store   string `json:"store"`
	Backend string `json:"backend"`
	Worker  *struct {
		Version string `json:"version"`
		State   string `json:"state"`
	} `json:"worker"`
}

func newRuntime(t *testing.T) *offline.Runtime {
	t.Helper()
	reg := offline.NewRegistration()
	w, err := offline.New(offline.Config{
		Version:      "daco-storymaker-v1.0.0",
		Strategy:     offline.StrategyNetworkFirst,
		Origin:       "https://story.test",
		Caches:       cachestore.NewMemory(),
		Network:      testutil.NewFakeNetwork(),
		Registration: reg,
		Log:          zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("offline.New failed: %v", err)
	}
	return offline.NewRuntime(w, reg, "daco-storymaker-v1.0.0", zap.NewNop())
}

func serve(h *health.Handler) (*httptest.ResponseRecorder, healthBody) {
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	var body healthBody
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestServe_MemoryStore(t *testing.T) {
	handler := health.NewHandler(newRuntime(t), "memory", nil, zap.NewNop())

	rec, body := serve(handler)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	if body.Status != "ok" || body.Store != "memory" {
		t.Errorf("unexpected body: %+v", body)
	}
	if body.Worker == nil || body.Worker.Version != "daco-storymaker-v1.0.0" || body.Worker.State != "parsed" {
		t.Errorf("unexpected worker status: %+v", body.Worker)
	}
}

func TestServe_BackendDown(t *testing.T) {
	ping := func(ctx context.Context) error { return errors.New("connection refused") }
	handler := health.NewHandler(newRuntime(t), "redis", ping, zap.NewNop())

	rec, body := serve(handler)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if body.Status != "error" || body.Backend != "disconnected" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestServe_WorkerRedundant(t *testing.T) {
	rt := newRuntime(t)
	// Nothing is served, so install fails.
	if err := rt.Install(context.Background()); err == nil {
		t.Fatal("expected install to fail")
	}
	handler := health.NewHandler(rt, "memory", nil, zap.NewNop())

	rec, body := serve(handler)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if body.Worker == nil || body.Worker.State != "redundant" {
		t.Errorf("unexpected worker status: %+v", body.Worker)
	}
}

func TestServe_DatabaseConnected(t *testing.T) {
	// Set up a test database to get a connected client
	db := testutil.SetupTestDB(t)
	client := db.Client()
	ping := func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
	handler := health.NewHandler(newRuntime(t), "mongo", ping, zap.NewNop())

	rec, body := serve(handler)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if body.Backend != "connected" {
		t.Errorf("backend: got %q, want %q", body.Backend, "connected")
	}
}
