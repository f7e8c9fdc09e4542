package offline

import "net/http"

// Response types, mirroring what a fetch reports about where a response came from.
const (
	TypeBasic   = "basic"   // same-origin
	TypeCORS    = "cors"    // cross-origin, readable
	TypeOpaque  = "opaque"  // cross-origin, unreadable
	TypeDefault = "default" // synthesized locally
)

// Response is a full response snapshot: status, headers, and body.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte
	Type       string
	URL        string
}

// Clone returns a deep copy of r. A stored clone never shares a body with the
// response handed back to the caller.
func (r *Response) Clone() *Response {
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

// privateHeaders belong to the client that made the request and are never
// written to a cache shared by every client.
var privateHeaders = []string{"Set-Cookie", "Set-Cookie2"}

// Shareable returns a deep copy of r without client-private headers.
func (r *Response) Shareable() *Response {
	c := r.Clone()
	for _, h := range privateHeaders {
		c.Header.Del(h)
	}
	return c
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status <= 299
}

// NewResponse builds a locally synthesized response.
func NewResponse(status int, statusText, contentType string, body []byte) *Response {
	if statusText == "" {
		statusText = http.StatusText(status)
	}
	h := make(http.Header)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &Response{
		Status:     status,
		StatusText: statusText,
		Header:     h,
		Body:       body,
		Type:       TypeDefault,
	}
}
