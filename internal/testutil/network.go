package testutil

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/dalemusser/storymaker/internal/app/system/offline"
)

// ErrOffline is returned by FakeNetwork while it is offline.
var ErrOffline = errors.New("testutil: network offline")

// FakeNetwork is an offline.Fetcher serving canned responses by URL.
// Unknown URLs get a 404. It records every fetched URL.
type FakeNetwork struct {
	mu        sync.Mutex
	responses map[string]*offline.Response
	failing   map[string]bool
	offline   bool
	calls     []string
}

// NewFakeNetwork returns an online network with no routes.
func NewFakeNetwork() *FakeNetwork {
	return &FakeNetwork{
		responses: make(map[string]*offline.Response),
		failing:   make(map[string]bool),
	}
}

// Serve registers a 200 response for url with the given type and body.
func (n *FakeNetwork) Serve(url, typ, contentType, body string) {
	h := make(http.Header)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	n.ServeResponse(url, &offline.Response{
		Status:     http.StatusOK,
		StatusText: "OK",
		Header:     h,
		Body:       []byte(body),
		Type:       typ,
		URL:        url,
	})
}

// ServeResponse registers resp for url.
func (n *FakeNetwork) ServeResponse(url string, resp *offline.Response) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.responses[url] = resp
}

// Fail makes fetches of url fail as a network error.
func (n *FakeNetwork) Fail(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failing[url] = true
}

// SetOffline makes every fetch fail.
func (n *FakeNetwork) SetOffline(off bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.offline = off
}

// Calls returns every URL fetched so far.
func (n *FakeNetwork) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

// CallCount returns how many times url was fetched.
func (n *FakeNetwork) CallCount(url string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, u := range n.calls {
		if u == url {
			c++
		}
	}
	return c
}

// Fetch implements offline.Fetcher.
func (n *FakeNetwork) Fetch(ctx context.Context, req *offline.Request) (*offline.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, req.URL)
	if n.offline || n.failing[req.URL] {
		return nil, ErrOffline
	}
	if resp, ok := n.responses[req.URL]; ok {
		return resp.Clone(), nil
	}
	return offline.NewResponse(http.StatusNotFound, "", "text/plain", []byte("not found")), nil
}
