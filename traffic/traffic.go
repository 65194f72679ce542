package traffic

import (
	"context"

	"github.com/wesleyorama2/stampede/internal/loadgen"
)

// Options configures a single batch.
type Options = loadgen.Options

// Report aggregates one settled batch.
type Report = loadgen.Report

// Outcome is the settled result of one request.
type Outcome = loadgen.Outcome

// Average is a mean latency that may be undefined.
type Average = loadgen.Average

// FailureKind classifies a transport failure.
type FailureKind = loadgen.FailureKind

// Failure kinds.
const (
	FailureTimeout            = loadgen.FailureTimeout
	FailureConnectionRefused  = loadgen.FailureConnectionRefused
	FailureConnectionReset    = loadgen.FailureConnectionReset
	FailureDNS                = loadgen.FailureDNS
	FailureTLS                = loadgen.FailureTLS
	FailureNetworkUnreachable = loadgen.FailureNetworkUnreachable
	FailureEOF                = loadgen.FailureEOF
	FailureInvalidURL         = loadgen.FailureInvalidURL
	FailureOther              = loadgen.FailureOther
)

// Defaults applied by DefaultOptions and by Run for zero values.
const (
	DefaultPath     = loadgen.DefaultPath
	DefaultRequests = loadgen.DefaultRequests
	DefaultTimeout  = loadgen.DefaultTimeout
)

// Undefined is the average of an empty set.
var Undefined = loadgen.Undefined

// DefaultOptions returns options for 100 requests to baseURL/health with a
// 5 second timeout.
func DefaultOptions(baseURL string) Options {
	return loadgen.DefaultOptions(baseURL)
}

// Run issues the batch and blocks until every request has settled.
// It always returns a report.
func Run(ctx context.Context, opts Options) *Report {
	return loadgen.Run(ctx, opts)
}

// Classify maps a transport error to a FailureKind.
func Classify(err error) FailureKind {
	return loadgen.Classify(err)
}

// Describe returns a short hint about what usually causes kind.
func Describe(kind FailureKind) string {
	return loadgen.Describe(kind)
}
