package cachestore_test

import (
	"path/filepath"
	"testing"

	cachestore "github.com/dalemusser/storymaker/internal/app/store/caches"
	"github.com/dalemusser/storymaker/internal/app/system/offline"
)

func TestSQLiteStore(t *testing.T) {
	testStorage(t, func(t *testing.T) offline.CacheStorage {
		s, err := cachestore.NewSQLite(filepath.Join(t.TempDir(), "caches.db"))
		if err != nil {
			t.Fatalf("NewSQLite failed: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caches.db")
	s, err := cachestore.NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	put(t, mustOpen(t, s, "v1"), "https://story.test/", "shell")
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = cachestore.NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if got := keyURLs(t, mustOpen(t, s, "v1")); len(got) != 1 || got[0] != "https://story.test/" {
		t.Errorf("expected the entry to survive a reopen, got %v", got)
	}
}
