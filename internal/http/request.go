package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Request describes one bodiless call relative to a client's base URL.
type Request struct {
	Method string
	Path   string
	Header http.Header
}

// NewRequest creates a request for method and path.
func NewRequest(method, path string) *Request {
	return &Request{
		Method: method,
		Path:   path,
		Header: make(http.Header),
	}
}

// Get is shorthand for NewRequest(http.MethodGet, path).
func Get(path string) *Request {
	return NewRequest(http.MethodGet, path)
}

// WithHeader sets a header, replacing any previous value.
func (r *Request) WithHeader(key, value string) *Request {
	r.Header.Set(key, value)
	return r
}

// URL joins Path onto baseURL, keeping any query baseURL carries.
// An empty Path leaves the base path untouched.
func (r *Request) URL(baseURL string) (*url.URL, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	if r.Path != "" {
		u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(r.Path, "/")
	}
	return u, nil
}

// Build turns the request into an *http.Request bound to ctx.
func (r *Request) Build(ctx context.Context, baseURL string) (*http.Request, error) {
	u, err := r.URL(baseURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	for key, values := range r.Header {
		req.Header[key] = append([]string(nil), values...)
	}
	return req, nil
}
