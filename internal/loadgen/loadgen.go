// Package loadgen fires a batch of concurrent GET requests at one endpoint
// and reports how the batch went.
//
// A batch is fan-out then join: every request is started without waiting
// for the others, each one writes its outcome into its own slot, and the
// report is built only after all of them have settled. Individual request
// failures are recorded, never returned.
package loadgen

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	httpclient "github.com/wesleyorama2/stampede/internal/http"
	"github.com/wesleyorama2/stampede/internal/metrics"
	"github.com/wesleyorama2/stampede/pkg/logger"
)

const (
	DefaultPath     = "/health"
	DefaultRequests = 100
	DefaultTimeout  = 5 * time.Second

	// RequestIDHeader carries a unique id on every issued request.
	RequestIDHeader = "X-Request-ID"
	// RunIDHeader carries the id of the batch a request belongs to.
	RunIDHeader = "X-Run-ID"

	userAgent        = "stampede/loadgen"
	healthStatusPath = "$.status"
)

// Options configures a single Run.
type Options struct {
	// BaseURL of the target, e.g. http://localhost:3001
	BaseURL string

	// Path appended to BaseURL. Empty means DefaultPath.
	Path string

	// Requests is the batch size. Zero is a valid, empty batch; negative
	// values are treated as zero.
	Requests int

	// Timeout bounds each request individually. Zero means DefaultTimeout.
	Timeout time.Duration

	// Headers are sent with every request.
	Headers map[string]string

	InsecureSkipVerify bool

	// Logger receives batch progress. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns options for the standard 100 request health check batch.
func DefaultOptions(baseURL string) Options {
	return Options{
		BaseURL:  baseURL,
		Path:     DefaultPath,
		Requests: DefaultRequests,
		Timeout:  DefaultTimeout,
	}
}

// Target returns the full URL requests are sent to.
func (o Options) Target() string {
	path := o.Path
	if path == "" {
		path = DefaultPath
	}
	return strings.TrimRight(o.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Run issues the batch and blocks until every request has settled.
//
// Cancelling ctx does not abort a batch in flight: requests only carry the
// values of ctx and are bounded by their own timeout, so Run returns after
// roughly Timeout in the worst case. Run always returns a report.
func Run(ctx context.Context, opts Options) *Report {
	log := logger.OrNop(opts.Logger)

	count := opts.Requests
	if count < 0 {
		log.Warn("negative request count, issuing none", zap.Int("requests", count))
		count = 0
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	path := opts.Path
	if path == "" {
		path = DefaultPath
	}

	runID := uuid.NewString()
	target := opts.Target()

	clientOpts := []httpclient.ClientOption{
		httpclient.WithBaseURL(opts.BaseURL),
		httpclient.WithTimeout(timeout),
		httpclient.WithMaxConnsPerHost(count),
		httpclient.WithInsecureSkipVerify(opts.InsecureSkipVerify),
		httpclient.WithHeader("User-Agent", userAgent),
		httpclient.WithHeader(RunIDHeader, runID),
	}
	for key, value := range opts.Headers {
		clientOpts = append(clientOpts, httpclient.WithHeader(key, value))
	}
	client := httpclient.NewClient(clientOpts...)
	defer client.CloseIdleConnections()

	log = log.With(zap.String("run_id", runID), zap.String("target", target))
	log.Info("starting batch", zap.Int("requests", count), zap.Duration("timeout", timeout))

	reqCtx := context.WithoutCancel(ctx)
	outcomes := make([]Outcome, count)

	start := time.Now()
	var wg sync.WaitGroup
	for i := range outcomes {
		wg.Add(1)
		go func(slot *Outcome) {
			defer wg.Done()
			*slot = probe(reqCtx, client, path, timeout, start)
		}(&outcomes[i])
	}
	wg.Wait()
	settled := time.Since(start)

	for _, o := range outcomes {
		if !o.Success {
			log.Debug("request failed",
				zap.String("request_id", o.RequestID),
				zap.String("kind", string(o.Kind)),
				zap.String("error", o.Error),
				zap.Duration("elapsed", o.Elapsed))
		}
	}

	report := summarize(runID, target, outcomes, settled, metrics.NewRecorder())
	if report.Degraded() {
		log.Error("batch aggregation failed", zap.String("reason", report.FailureReason))
		return report
	}

	log.Info("batch settled",
		zap.Int("issued", report.RequestsIssued),
		zap.Int("succeeded", report.RequestsSucceeded),
		zap.Int("failed", report.RequestsFailed),
		zap.Stringer("avg_success_latency", report.AverageSuccessLatency),
		zap.Duration("total", report.TotalElapsed))

	return report
}

// probe issues one request and turns whatever happens into an Outcome.
func probe(ctx context.Context, client *httpclient.Client, path string, timeout time.Duration, start time.Time) (out Outcome) {
	id := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			out = failed(id, fmt.Errorf("request panicked: %v", r), time.Since(start))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := httpclient.Get(path).WithHeader(RequestIDHeader, id)
	resp, err := client.Do(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		return failed(id, err, elapsed)
	}

	health, _ := resp.Lookup(healthStatusPath)

	return succeeded(id, resp.StatusCode, elapsed, health).withTiming(resp.Timing)
}
