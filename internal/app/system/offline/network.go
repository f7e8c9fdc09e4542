package offline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fetcher performs network requests. An error means the network itself
// failed (offline, DNS, refused); any HTTP status is a successful fetch.
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) (*Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req *Request) (*Response, error)

// Fetch calls f(ctx, req).
func (f FetcherFunc) Fetch(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// hop-by-hop headers are never forwarded or stored.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// HTTPFetcher fetches over HTTP. Requests for the public origin are sent to
// Upstream instead, which is where the storymaker app is actually served.
type HTTPFetcher struct {
	Client   *http.Client
	Origin   *url.URL // public origin the pages were loaded from
	Upstream *url.URL // nil means same-origin requests go to Origin itself

	// Timeout bounds a single fetch. Zero means no deadline.
	Timeout time.Duration
}

// NewHTTPFetcher returns a fetcher with its own client. Redirects are followed
// by the client, as a browser fetch does.
func NewHTTPFetcher(origin, upstream *url.URL, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		Client:   &http.Client{},
		Origin:   origin,
		Upstream: upstream,
		Timeout:  timeout,
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *Request) (*Response, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	sameOrigin := SameOrigin(f.Origin, req.URL)
	target, err := f.target(req.URL, sameOrigin)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	for k, vv := range req.Header {
		for _, v := range vv {
			hreq.Header.Add(k, v)
		}
	}
	for _, h := range hopHeaders {
		hreq.Header.Del(h)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	hresp, err := client.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
	}
	defer hresp.Body.Close()

	data, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.URL, err)
	}

	header := hresp.Header.Clone()
	for _, h := range hopHeaders {
		header.Del(h)
	}
	// The body is fully buffered; the length is recomputed on write.
	header.Del("Content-Length")

	typ := TypeCORS
	if sameOrigin {
		typ = TypeBasic
	}
	return &Response{
		Status:     hresp.StatusCode,
		StatusText: http.StatusText(hresp.StatusCode),
		Header:     header,
		Body:       data,
		Type:       typ,
		URL:        req.URL,
	}, nil
}

// target maps a same-origin URL onto Upstream. The request path is appended
// as sent, escapes and dot segments included, so upstream sees the resource
// the cache key names.
func (f *HTTPFetcher) target(rawURL string, sameOrigin bool) (string, error) {
	if !sameOrigin || f.Upstream == nil {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	p, rawP := u.Path, u.EscapedPath()
	if p == "" {
		p, rawP = "/", "/"
	}
	t := *f.Upstream
	t.Path = strings.TrimSuffix(f.Upstream.Path, "/") + p
	t.RawPath = strings.TrimSuffix(f.Upstream.EscapedPath(), "/") + rawP
	t.RawQuery = u.RawQuery
	t.Fragment = ""
	return t.String(), nil
}
