// Package offline implements the storymaker offline worker: a versioned
// response cache in front of the app shell, driven by lifecycle, fetch,
// message, push, and sync events.
//
// The worker never talks to a browser. A Runtime delivers events one at a time
// and waits for every operation a handler registers with WaitUntil before the
// event is considered handled. Two strategies exist, CacheFirst and
// NetworkFirst, selected by configuration.
package offline

import (
	"net/http"
	"net/url"
	"strings"
)

// Request modes, as reported by Sec-Fetch-Mode.
const (
	ModeNavigate   = "navigate"
	ModeSameOrigin = "same-origin"
	ModeCORS       = "cors"
	ModeNoCORS     = "no-cors"
)

// Request destinations, as reported by Sec-Fetch-Dest.
const (
	DestinationDocument = "document"
	DestinationStyle    = "style"
	DestinationFont     = "font"
	DestinationImage    = "image"
	DestinationEmpty    = ""
)

// Request is one intercepted request.
type Request struct {
	Method      string
	URL         string // absolute
	Mode        string
	Destination string
	Header      http.Header
	Body        []byte
}

// NewRequest returns a GET-style request for rawURL with an empty header.
func NewRequest(method, rawURL string) *Request {
	if method == "" {
		method = http.MethodGet
	}
	return &Request{
		Method: strings.ToUpper(method),
		URL:    rawURL,
		Mode:   ModeCORS,
		Header: make(http.Header),
	}
}

// Clone returns a deep copy of r.
func (r *Request) Clone() *Request {
	c := *r
	c.Header = r.Header.Clone()
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	if r.Body != nil {
		c.Body = append([]byte(nil), r.Body...)
	}
	return &c
}

// IsNavigation reports whether r is a full page load.
func (r *Request) IsNavigation() bool {
	return r.Mode == ModeNavigate
}

// CacheKey returns the identity a cache stores r under: the URL without its
// fragment. Only GET requests can be stored or matched.
func CacheKey(r *Request) (string, error) {
	if r == nil || r.Method != http.MethodGet {
		return "", ErrMethodNotCacheable
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return "", err
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

// SameOrigin reports whether rawURL has the same scheme and host as origin.
func SameOrigin(origin *url.URL, rawURL string) bool {
	if origin == nil {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, origin.Scheme) && strings.EqualFold(u.Host, origin.Host)
}
