package cachestore_test

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/dalemusser/storymaker/internal/app/system/offline"
)

// testStorage runs the behavior every backend must share.
func testStorage(t *testing.T, newStorage func(t *testing.T) offline.CacheStorage) {
	t.Run("open_has_keys", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		has, err := s.Has(ctx, "v1")
		if err != nil {
			t.Fatalf("Has failed: %v", err)
		}
		if has {
			t.Fatal("expected v1 to be absent before Open")
		}
		for _, name := range []string{"v2", "v1", "v3"} {
			if _, err := s.Open(ctx, name); err != nil {
				t.Fatalf("Open(%s) failed: %v", name, err)
			}
		}
		// Opening again must not move it.
		if _, err := s.Open(ctx, "v2"); err != nil {
			t.Fatalf("reopen failed: %v", err)
		}

		names, err := s.Keys(ctx)
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		if want := []string{"v2", "v1", "v3"}; !reflect.DeepEqual(names, want) {
			t.Errorf("expected names %v, got %v", want, names)
		}
		has, _ = s.Has(ctx, "v1")
		if !has {
			t.Error("expected v1 to exist after Open")
		}
	})

	t.Run("put_match_roundtrip", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		c := mustOpen(t, s, "v1")

		resp := offline.NewResponse(http.StatusOK, "", "text/html", []byte("<p>hi</p>"))
		resp.Type = offline.TypeBasic
		resp.Header.Set("Cache-Control", "no-cache")
		if err := c.Put(ctx, get("https://story.test/index.html#top"), resp); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		got, err := c.Match(ctx, get("https://story.test/index.html#other"))
		if err != nil {
			t.Fatalf("Match failed: %v", err)
		}
		if got.Status != http.StatusOK || got.StatusText != "OK" {
			t.Errorf("expected 200 OK, got %d %q", got.Status, got.StatusText)
		}
		if string(got.Body) != "<p>hi</p>" {
			t.Errorf("expected body <p>hi</p>, got %q", got.Body)
		}
		if got.Type != offline.TypeBasic {
			t.Errorf("expected type basic, got %q", got.Type)
		}
		if got.Header.Get("Content-Type") != "text/html" || got.Header.Get("Cache-Control") != "no-cache" {
			t.Errorf("headers not preserved: %v", got.Header)
		}

		if _, err := c.Match(ctx, get("https://story.test/index.html?v=2")); !errors.Is(err, offline.ErrNotFound) {
			t.Errorf("expected ErrNotFound for a different query, got %v", err)
		}
	})

	t.Run("client_cookies_not_stored", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		c := mustOpen(t, s, "v1")

		resp := offline.NewResponse(http.StatusOK, "", "application/json", []byte(`{"user":"alice"}`))
		resp.Header.Add("Set-Cookie", "session=alice-secret; Path=/")
		resp.Header.Add("Set-Cookie2", "legacy=1")
		resp.Header.Set("ETag", `"v1"`)
		if err := c.Put(ctx, get("https://story.test/api/me"), resp); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		got, err := c.Match(ctx, get("https://story.test/api/me"))
		if err != nil {
			t.Fatalf("Match failed: %v", err)
		}
		if v := got.Header.Values("Set-Cookie"); len(v) != 0 {
			t.Errorf("expected no Set-Cookie in the stored copy, got %v", v)
		}
		if v := got.Header.Values("Set-Cookie2"); len(v) != 0 {
			t.Errorf("expected no Set-Cookie2 in the stored copy, got %v", v)
		}
		if got.Header.Get("ETag") != `"v1"` {
			t.Errorf("expected other headers kept, got %v", got.Header)
		}
		if resp.Header.Get("Set-Cookie") == "" {
			t.Error("expected the caller's response to keep its cookie")
		}
	})

	t.Run("put_overwrites_in_place", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		c := mustOpen(t, s, "v1")

		put(t, c, "https://story.test/a", "a1")
		put(t, c, "https://story.test/b", "b1")
		put(t, c, "https://story.test/a", "a2")

		got, err := c.Match(ctx, get("https://story.test/a"))
		if err != nil {
			t.Fatalf("Match failed: %v", err)
		}
		if string(got.Body) != "a2" {
			t.Errorf("expected last write a2, got %q", got.Body)
		}
		if want := []string{"https://story.test/a", "https://story.test/b"}; !reflect.DeepEqual(keyURLs(t, c), want) {
			t.Errorf("expected keys %v, got %v", want, keyURLs(t, c))
		}
	})

	t.Run("only_get_is_cacheable", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		c := mustOpen(t, s, "v1")
		put(t, c, "https://story.test/api", "stored")

		post := offline.NewRequest(http.MethodPost, "https://story.test/api")
		err := c.Put(ctx, post, offline.NewResponse(http.StatusOK, "", "", nil))
		if !errors.Is(err, offline.ErrMethodNotCacheable) {
			t.Errorf("expected ErrMethodNotCacheable, got %v", err)
		}
		if _, err := c.Match(ctx, post); !errors.Is(err, offline.ErrNotFound) {
			t.Errorf("expected POST lookup to miss, got %v", err)
		}
	})

	t.Run("delete_entry", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		c := mustOpen(t, s, "v1")
		put(t, c, "https://story.test/a", "a")

		ok, err := c.Delete(ctx, get("https://story.test/a"))
		if err != nil || !ok {
			t.Fatalf("expected first Delete to remove the entry, got %v, %v", ok, err)
		}
		ok, err = c.Delete(ctx, get("https://story.test/a"))
		if err != nil || ok {
			t.Errorf("expected second Delete to report false, got %v, %v", ok, err)
		}
		if len(keyURLs(t, c)) != 0 {
			t.Error("expected no keys after Delete")
		}
	})

	t.Run("delete_cache", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		old := mustOpen(t, s, "old")
		put(t, old, "https://story.test/a", "a")
		keep := mustOpen(t, s, "keep")
		put(t, keep, "https://story.test/a", "kept")

		ok, err := s.Delete(ctx, "old")
		if err != nil || !ok {
			t.Fatalf("expected Delete(old) to succeed, got %v, %v", ok, err)
		}
		ok, err = s.Delete(ctx, "old")
		if err != nil || ok {
			t.Errorf("expected second Delete(old) to report false, got %v, %v", ok, err)
		}
		names, _ := s.Keys(ctx)
		if !reflect.DeepEqual(names, []string{"keep"}) {
			t.Errorf("expected [keep], got %v", names)
		}

		reopened := mustOpen(t, s, "old")
		if _, err := reopened.Match(ctx, get("https://story.test/a")); !errors.Is(err, offline.ErrNotFound) {
			t.Errorf("expected a recreated cache to be empty, got %v", err)
		}
		got, err := offline.MatchAll(ctx, s, get("https://story.test/a"))
		if err != nil {
			t.Fatalf("MatchAll failed: %v", err)
		}
		if string(got.Body) != "kept" {
			t.Errorf("expected kept, got %q", got.Body)
		}
	})
}

func get(rawURL string) *offline.Request {
	return offline.NewRequest(http.MethodGet, rawURL)
}

func mustOpen(t *testing.T, s offline.CacheStorage, name string) offline.Cache {
	t.Helper()
	c, err := s.Open(context.Background(), name)
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", name, err)
	}
	return c
}

func put(t *testing.T, c offline.Cache, rawURL, body string) {
	t.Helper()
	resp := offline.NewResponse(http.StatusOK, "", "text/plain", []byte(body))
	if err := c.Put(context.Background(), get(rawURL), resp); err != nil {
		t.Fatalf("Put(%s) failed: %v", rawURL, err)
	}
}

func keyURLs(t *testing.T, c offline.Cache) []string {
	t.Helper()
	reqs, err := c.Keys(context.Background())
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	out := []string{}
	for _, r := range reqs {
		out = append(out, r.URL)
	}
	return out
}
