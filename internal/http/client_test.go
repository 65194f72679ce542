package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
)

func TestClient_Do(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("Expected method GET, got %s", r.Method)
		}
		if r.URL.Path != "/health" {
			t.Errorf("Expected path /health, got %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") != "abc" {
			t.Errorf("Expected header X-Request-ID: abc, got %s", r.Header.Get("X-Request-ID"))
		}
		if r.Header.Get("User-Agent") != "stampede-test" {
			t.Errorf("Expected User-Agent stampede-test, got %s", r.Header.Get("User-Agent"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := NewClient(
		WithTimeout(5*time.Second),
		WithHeader("User-Agent", "stampede-test"),
		WithBaseURL(server.URL),
	)

	req := NewRequest("GET", "/health").WithHeader("X-Request-ID", "abc")

	resp, err := client.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("Error executing request: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type: application/json, got %s", resp.Header.Get("Content-Type"))
	}
	if string(resp.Body) != `{"status":"ok"}` {
		t.Errorf("Unexpected body %s", resp.Body)
	}
	if status, ok := resp.Lookup("$.status"); !ok || status != "ok" {
		t.Errorf("Expected $.status ok, got %q (%v)", status, ok)
	}

	if resp.Timing.TotalTime <= 0 {
		t.Errorf("Expected positive total time, got %v", resp.Timing.TotalTime)
	}
	if resp.Timing.TotalTime < resp.Timing.TimeToFirstByte {
		t.Errorf("Total %v shorter than TTFB %v", resp.Timing.TotalTime, resp.Timing.TimeToFirstByte)
	}
	if resp.Timing.TCPConnectTime <= 0 {
		t.Errorf("Expected a timed dial on a fresh client, got %v", resp.Timing.TCPConnectTime)
	}
	if resp.Timing.ConnectionReused {
		t.Error("First request on a fresh client cannot reuse a connection")
	}
}

func TestClient_ReusesConnections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	defer client.CloseIdleConnections()

	first, err := client.Do(context.Background(), Get("/"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := client.Do(context.Background(), Get("/"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if first.Timing.ConnectionReused {
		t.Error("Expected the first request to dial")
	}
	if !second.Timing.ConnectionReused {
		t.Error("Expected the second request to reuse the idle connection")
	}
	if second.Timing.TCPConnectTime != 0 {
		t.Errorf("Expected no connect phase on reuse, got %v", second.Timing.TCPConnectTime)
	}
}

func TestPhaseClock_ConcurrentDials(t *testing.T) {
	clock := &phaseClock{}
	trace := clock.trace()
	clock.start()

	var wg sync.WaitGroup
	for _, addr := range []string{"[::1]:80", "127.0.0.1:80"} {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			trace.ConnectStart("tcp", addr)
			trace.ConnectDone("tcp", addr, nil)
		}(addr)
	}
	wg.Wait()
	trace.GotFirstResponseByte()

	timing := clock.finish(time.Now())
	if timing.TCPConnectTime < 0 {
		t.Errorf("Expected non-negative connect time, got %v", timing.TCPConnectTime)
	}
	if timing.TotalTime < timing.TimeToFirstByte {
		t.Errorf("Total %v shorter than TTFB %v", timing.TotalTime, timing.TimeToFirstByte)
	}
}

func TestClient_RequestHeaderWins(t *testing.T) {
	got := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("X-Env")
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithHeader("X-Env", "client"))
	if _, err := client.Do(context.Background(), Get("/").WithHeader("X-Env", "request")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v := <-got; v != "request" {
		t.Errorf("Expected request header to win, got %q", v)
	}
}

func TestClient_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithTimeout(5*time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Do(ctx, Get("/"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
}

func TestClient_DoErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	resp, err := client.Do(context.Background(), NewRequest("GET", "/"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected server error status, got %d", resp.StatusCode)
	}
}

func TestClient_DoTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := client.Do(context.Background(), NewRequest("GET", "/slow"))
	if err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Timeout took too long: %v", elapsed)
	}

	var urlErr *url.Error
	if !errors.As(err, &urlErr) || !urlErr.Timeout() {
		t.Errorf("Expected a timeout url.Error, got %T: %v", err, err)
	}
}

func TestClient_DoConnectionRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	client := NewClient(WithBaseURL("http://"+addr), WithTimeout(time.Second))
	if _, err := client.Do(context.Background(), NewRequest("GET", "/health")); err == nil {
		t.Fatal("Expected connection error, got nil")
	}
}

func TestClient_WithOptions(t *testing.T) {
	client := NewClient(
		WithTimeout(10*time.Second),
		WithBaseURL("https://example.com"),
		WithHeader("X-Test", "test-value"),
		WithMaxConnsPerHost(100),
		WithInsecureSkipVerify(true),
	)

	if client.httpClient.Timeout != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %v", client.httpClient.Timeout)
	}
	if client.baseURL != "https://example.com" {
		t.Errorf("Expected baseURL https://example.com, got %s", client.baseURL)
	}
	if client.header.Get("X-Test") != "test-value" {
		t.Errorf("Expected header X-Test: test-value, got %s", client.header.Get("X-Test"))
	}
	if client.transport.MaxConnsPerHost != 100 || client.transport.MaxIdleConnsPerHost != 100 {
		t.Errorf("Expected 100 conns per host, got %d/%d",
			client.transport.MaxConnsPerHost, client.transport.MaxIdleConnsPerHost)
	}
	if client.transport.TLSClientConfig == nil || !client.transport.TLSClientConfig.InsecureSkipVerify {
		t.Error("Expected InsecureSkipVerify to be set")
	}
}
