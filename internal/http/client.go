package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client issues requests against one base URL with shared headers and a
// shared connection pool. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	transport  *http.Transport
	baseURL    string
	header     http.Header
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// NewClient creates a client on a private copy of the default transport.
func NewClient(options ...ClientOption) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	client := &Client{
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: transport,
		},
		transport: transport,
		header:    make(http.Header),
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// WithBaseURL sets the URL request paths are joined onto
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout bounds each request, including reading the body
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHeader sets a header sent with every request unless the request sets it itself
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.header.Set(key, value)
	}
}

// WithMaxConnsPerHost sizes the connection pool so that n requests can be in
// flight against one host without queueing on idle connections.
func WithMaxConnsPerHost(n int) ClientOption {
	return func(c *Client) {
		if n <= 0 {
			return
		}
		c.transport.MaxConnsPerHost = n
		c.transport.MaxIdleConnsPerHost = n
		if c.transport.MaxIdleConns < n {
			c.transport.MaxIdleConns = n
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification
func WithInsecureSkipVerify(skip bool) ClientOption {
	return func(c *Client) {
		if c.transport.TLSClientConfig == nil {
			c.transport.TLSClientConfig = &tls.Config{}
		}
		c.transport.TLSClientConfig.InsecureSkipVerify = skip
	}
}

// CloseIdleConnections releases pooled connections once a batch is done.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Do sends req and reads the whole body. Any status code is a response, not
// an error. Transport errors are returned unwrapped so callers can inspect
// them with errors.As.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	clock := &phaseClock{}
	ctx = httptrace.WithClientTrace(ctx, clock.trace())

	httpReq, err := req.Build(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}
	for key, values := range c.header {
		if _, ok := httpReq.Header[key]; !ok {
			httpReq.Header[key] = values
		}
	}

	clock.start()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	transferStart := time.Now()
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     httpResp.Header,
		Body:       body,
		Timing:     clock.finish(transferStart),
	}, nil
}

// phaseClock collects httptrace callbacks into a TimingInfo. Time to first
// byte is measured from the end of the last connection phase, so on a
// reused connection it covers the whole server round trip.
//
// Happy eyeballs can run two dials at once, so every callback takes mu.
type phaseClock struct {
	mu        sync.Mutex
	timing    TimingInfo
	dnsStart  time.Time
	dialStart time.Time
	tlsStart  time.Time
	ready     time.Time
}

func (p *phaseClock) start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timing.StartTime = time.Now()
	p.ready = p.timing.StartTime
}

// mark runs fn under the lock with the current time.
func (p *phaseClock) mark(fn func(now time.Time)) {
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(now)
}

func (p *phaseClock) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			p.mark(func(time.Time) { p.timing.ConnectionReused = info.Reused })
		},
		DNSStart: func(httptrace.DNSStartInfo) {
			p.mark(func(now time.Time) { p.dnsStart = now })
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			p.mark(func(now time.Time) {
				p.ready = now
				p.timing.DNSLookupTime = now.Sub(p.dnsStart)
			})
		},
		ConnectStart: func(string, string) {
			// Time the first attempt only
			p.mark(func(now time.Time) {
				if p.dialStart.IsZero() {
					p.dialStart = now
				}
			})
		},
		ConnectDone: func(_, _ string, err error) {
			if err != nil {
				return
			}
			p.mark(func(now time.Time) {
				if p.timing.TCPConnectTime > 0 {
					return
				}
				p.ready = now
				p.timing.TCPConnectTime = now.Sub(p.dialStart)
			})
		},
		TLSHandshakeStart: func() {
			p.mark(func(now time.Time) { p.tlsStart = now })
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err != nil {
				return
			}
			p.mark(func(now time.Time) {
				if p.tlsStart.IsZero() {
					return
				}
				p.ready = now
				p.timing.TLSHandshakeTime = now.Sub(p.tlsStart)
			})
		},
		GotFirstResponseByte: func() {
			p.mark(func(now time.Time) { p.timing.TimeToFirstByte = now.Sub(p.ready) })
		},
	}
}

func (p *phaseClock) finish(transferStart time.Time) TimingInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.timing.ContentTransferTime = now.Sub(transferStart)
	p.timing.TotalTime = now.Sub(p.timing.StartTime)
	return p.timing
}
