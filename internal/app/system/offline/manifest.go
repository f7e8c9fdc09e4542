package offline

import (
	"fmt"
	"net/http"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// External stylesheets both manifests carry.
const (
	fontsStylesheet   = "https://fonts.googleapis.com/css2?family=Amiri&family=Lalezar&family=Markazi+Text&family=Noto+Naskh+Arabic&family=Vazirmatn:wght@400;700;800&display=swap"
	shabnamStylesheet = "https://cdn.fontcdn.ir/Font/Persian/Shabnam/Shabnam.css"
)

// DefaultCacheFirstManifest is the app shell cached by the cache-first worker.
var DefaultCacheFirstManifest = []string{
	"./",
	"./index.html",
	"./manifest.json",
	"./icon-72.png",
	"./icon-96.png",
	"./icon-128.png",
	"./icon-144.png",
	"./icon-152.png",
	"./icon-192.png",
	"./icon-384.png",
	"./icon-512.png",
	fontsStylesheet,
	shabnamStylesheet,
}

// DefaultNetworkFirstManifest is the app shell cached by the network-first worker.
var DefaultNetworkFirstManifest = []string{
	"/",
	"/index.html",
	"/manifest.json",
	fontsStylesheet,
	shabnamStylesheet,
}

// DefaultAllowedOrigins are the external origins a cache-first worker intercepts.
var DefaultAllowedOrigins = []string{
	"https://fonts.googleapis.com",
	"https://fonts.gstatic.com",
	"https://cdn.fontcdn.ir",
}

// ResolveManifest resolves manifest entries against the worker scope and
// returns one GET request per entry, in order.
func ResolveManifest(origin *url.URL, entries []string) ([]*Request, error) {
	base := *origin
	if base.Path == "" {
		base.Path = "/"
	}
	reqs := make([]*Request, 0, len(entries))
	for _, e := range entries {
		ref, err := url.Parse(e)
		if err != nil {
			return nil, fmt.Errorf("manifest entry %q: %w", e, err)
		}
		reqs = append(reqs, NewRequest(http.MethodGet, base.ResolveReference(ref).String()))
	}
	return reqs, nil
}

// manifestFile is the YAML layout of a manifest override.
type manifestFile struct {
	URLs []string `yaml:"urls"`
}

// LoadManifestFile reads a YAML manifest:
//
//	urls:
//	  - ./
//	  - ./index.html
func LoadManifestFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mf manifestFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(mf.URLs) == 0 {
		return nil, fmt.Errorf("manifest %s lists no urls", path)
	}
	return mf.URLs, nil
}
