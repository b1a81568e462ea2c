package router

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
)

// Default response values.
const (
	DefaultStatus      = http.StatusOK
	DefaultContentType = "text/plain"
)

// Request is the transport-agnostic request handed to filters and handlers.
// Header names are canonicalized, so lookups are case-insensitive.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Body     string
	Headers  http.Header
	ID       string

	ctx context.Context
}

// NewRequest builds a Request from a request target as it appears on the
// wire, optionally carrying a query. The path is percent-decoded the way
// net/http decodes URL.Path; a path with a malformed escape is kept as is.
// The query stays raw. The headers are copied.
func NewRequest(method, target, body string, headers http.Header) *Request {
	path, rawQuery := SplitTarget(target)
	if decoded, err := url.PathUnescape(path); err == nil {
		path = decoded
	}
	h := make(http.Header, len(headers))
	for name, values := range headers {
		for _, v := range values {
			h.Add(name, v)
		}
	}
	return &Request{
		Method:   method,
		Path:     path,
		RawQuery: rawQuery,
		Body:     body,
		Headers:  h,
	}
}

// Target returns the path with the raw query appended, if any.
func (r *Request) Target() string {
	if r.RawQuery == "" {
		return r.Path
	}
	return r.Path + "?" + r.RawQuery
}

// Header returns the first value of the named header.
func (r *Request) Header(name string) string {
	return r.Headers.Get(name)
}

// HasHeader reports whether the named header is present, even if empty.
func (r *Request) HasHeader(name string) bool {
	_, ok := r.Headers[http.CanonicalHeaderKey(name)]
	return ok
}

// Context returns the request context, never nil.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a shallow copy of r with ctx attached.
func (r *Request) WithContext(ctx context.Context) *Request {
	r2 := *r
	r2.ctx = ctx
	return &r2
}

// Response is the mutable response a handler writes into. Status defaults
// to 200 and content type to text/plain.
type Response struct {
	status      int
	contentType string
	body        bytes.Buffer
	header      http.Header
}

// NewResponse returns a Response with default values.
func NewResponse() *Response {
	return &Response{
		status:      DefaultStatus,
		contentType: DefaultContentType,
	}
}

// SetStatus sets the status code.
func (r *Response) SetStatus(status int) {
	r.status = status
}

// Status returns the status code.
func (r *Response) Status() int {
	return r.status
}

// SetContentType sets the content type.
func (r *Response) SetContentType(contentType string) {
	r.contentType = contentType
}

// ContentType returns the content type.
func (r *Response) ContentType() string {
	return r.contentType
}

// Write appends p to the body.
func (r *Response) Write(p []byte) (int, error) {
	return r.body.Write(p)
}

// WriteString appends s to the body.
func (r *Response) WriteString(s string) (int, error) {
	return r.body.WriteString(s)
}

// SetBody replaces the body with s.
func (r *Response) SetBody(s string) {
	r.body.Reset()
	r.body.WriteString(s)
}

// Body returns the body as a string.
func (r *Response) Body() string {
	return r.body.String()
}

// Bytes returns the body bytes. The slice is only valid until the next
// write.
func (r *Response) Bytes() []byte {
	return r.body.Bytes()
}

// Header returns extra headers to send with the response. The content type
// is not part of it.
func (r *Response) Header() http.Header {
	if r.header == nil {
		r.header = make(http.Header)
	}
	return r.header
}

// Finalize discards anything written so far and sets a terminal
// status, text/plain content type and body. Extra headers are dropped.
func (r *Response) Finalize(status int, body string) {
	r.status = status
	r.contentType = DefaultContentType
	r.header = nil
	r.SetBody(body)
}
