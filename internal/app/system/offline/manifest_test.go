package offline_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveManifest(t *testing.T) {
	reqs, err := offline.ResolveManifest(mustOrigin(t), []string{
		"./",
		"./icon-72.png",
		"/manifest.json",
		"https://cdn.fontcdn.ir/Font/Persian/Shabnam/Shabnam.css",
	})
	require.NoError(t, err)

	var urls []string
	for _, r := range reqs {
		assert.Equal(t, "GET", r.Method)
		urls = append(urls, r.URL)
	}
	assert.Equal(t, []string{
		testOrigin + "/",
		testOrigin + "/icon-72.png",
		testOrigin + "/manifest.json",
		"https://cdn.fontcdn.ir/Font/Persian/Shabnam/Shabnam.css",
	}, urls)
}

func TestDefaultManifests(t *testing.T) {
	assert.Len(t, offline.DefaultCacheFirstManifest, 13)
	assert.Len(t, offline.DefaultNetworkFirstManifest, 5)
}

func TestLoadManifestFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(good, []byte("urls:\n  - ./\n  - ./index.html\n"), 0o644))
	entries, err := offline.LoadManifestFile(good)
	require.NoError(t, err)
	assert.Equal(t, []string{"./", "./index.html"}, entries)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("urls: []\n"), 0o644))
	_, err = offline.LoadManifestFile(empty)
	assert.Error(t, err)

	_, err = offline.LoadManifestFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
