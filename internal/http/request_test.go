package http

import (
	"context"
	"testing"
)

func TestRequest_URL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		req      *Request
		expected string
	}{
		{"simple", "http://localhost:3001", Get("/health"), "http://localhost:3001/health"},
		{"trailing slash on base", "http://localhost:3001/", Get("/health"), "http://localhost:3001/health"},
		{"base with prefix", "http://localhost:3001/api", Get("health"), "http://localhost:3001/api/health"},
		{"empty path keeps base", "http://localhost:3001/ping", Get(""), "http://localhost:3001/ping"},
		{"base query kept", "http://localhost:3001/?token=x", Get("/health"), "http://localhost:3001/health?token=x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := tt.req.URL(tt.baseURL)
			if err != nil {
				t.Fatalf("URL() error: %v", err)
			}
			if u.String() != tt.expected {
				t.Errorf("URL() = %s, want %s", u.String(), tt.expected)
			}
		})
	}
}

type ctxKey struct{}

func TestRequest_Build(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")
	req := NewRequest("HEAD", "/items").WithHeader("X-Request-ID", "abc")

	httpReq, err := req.Build(ctx, "http://localhost:3001")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if httpReq.Method != "HEAD" {
		t.Errorf("Expected HEAD, got %s", httpReq.Method)
	}
	if httpReq.Context() != ctx {
		t.Error("Expected request to carry the given context")
	}
	if httpReq.Header.Get("X-Request-ID") != "abc" {
		t.Errorf("Expected X-Request-ID abc, got %q", httpReq.Header.Get("X-Request-ID"))
	}
	if httpReq.URL.String() != "http://localhost:3001/items" {
		t.Errorf("Unexpected URL %s", httpReq.URL)
	}

	// Building must not alias the request's header map
	httpReq.Header.Set("X-Request-ID", "changed")
	if req.Header.Get("X-Request-ID") != "abc" {
		t.Error("Build leaked header mutations back into the Request")
	}
}

func TestRequest_BuildInvalidBaseURL(t *testing.T) {
	if _, err := Get("/health").Build(context.Background(), "http://[::1"); err == nil {
		t.Error("Expected error for malformed base URL")
	}
}
