package loadgen

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/wesleyorama2/stampede/internal/metrics"
)

// Report aggregates one batch of outcomes. It is built once per Run.
type Report struct {
	RunID  string `json:"runId" yaml:"runId"`
	Target string `json:"target" yaml:"target"`

	RequestsIssued    int `json:"requestsIssued" yaml:"requestsIssued"`
	RequestsSucceeded int `json:"requestsSucceeded" yaml:"requestsSucceeded"`
	RequestsFailed    int `json:"requestsFailed" yaml:"requestsFailed"`

	// AverageSuccessLatency is the mean Elapsed over successful outcomes,
	// undefined when nothing succeeded.
	AverageSuccessLatency Average `json:"averageSuccessLatencyMillis" yaml:"averageSuccessLatencyMillis"`

	TotalElapsed       time.Duration `json:"-" yaml:"-"`
	TotalElapsedMillis int64         `json:"totalElapsedMillis" yaml:"totalElapsedMillis"`

	// FailureReason is set only when aggregation itself failed. In that case
	// RequestsIssued is 0 and the remaining counters are empty.
	FailureReason string `json:"failureReason,omitempty" yaml:"failureReason,omitempty"`

	StatusCodes    map[int]int         `json:"statusCodes,omitempty" yaml:"statusCodes,omitempty"`
	Failures       map[FailureKind]int `json:"failures,omitempty" yaml:"failures,omitempty"`
	HealthStatuses map[string]int      `json:"healthStatuses,omitempty" yaml:"healthStatuses,omitempty"`

	// Latency holds percentiles of successful outcomes, nil when none succeeded.
	Latency *metrics.LatencyStats `json:"latency,omitempty" yaml:"latency,omitempty"`

	// TimeToFirstByte holds the same percentiles for the server round trip
	// alone, without dialing or reading the body.
	TimeToFirstByte *metrics.LatencyStats `json:"timeToFirstByte,omitempty" yaml:"timeToFirstByte,omitempty"`

	// ConnectionsReused counts successes served on a pooled connection.
	ConnectionsReused int `json:"connectionsReused" yaml:"connectionsReused"`

	Outcomes []Outcome `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
}

// Degraded reports whether aggregation failed and the counters are not meaningful.
func (r *Report) Degraded() bool {
	return r.FailureReason != ""
}

// HasFailures reports whether any request failed or the report is degraded.
func (r *Report) HasFailures() bool {
	return r.Degraded() || r.RequestsFailed > 0
}

// SuccessRate returns RequestsSucceeded/RequestsIssued, or 0 for an empty batch.
func (r *Report) SuccessRate() float64 {
	if r.RequestsIssued == 0 {
		return 0
	}
	return float64(r.RequestsSucceeded) / float64(r.RequestsIssued)
}

// FailureKinds returns the failure kinds seen, most frequent first.
func (r *Report) FailureKinds() []FailureKind {
	kinds := make([]FailureKind, 0, len(r.Failures))
	for kind := range r.Failures {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		if r.Failures[kinds[i]] != r.Failures[kinds[j]] {
			return r.Failures[kinds[i]] > r.Failures[kinds[j]]
		}
		return kinds[i] < kinds[j]
	})
	return kinds
}

// StatusCodeList returns the status codes seen in ascending order.
func (r *Report) StatusCodeList() []int {
	codes := make([]int, 0, len(r.StatusCodes))
	for code := range r.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// SlowestOutcome returns the largest Elapsed across all outcomes.
func (r *Report) SlowestOutcome() time.Duration {
	var slowest time.Duration
	for _, o := range r.Outcomes {
		if o.Elapsed > slowest {
			slowest = o.Elapsed
		}
	}
	return slowest
}

// Average is a mean in milliseconds that may be undefined. It never holds NaN.
type Average struct {
	Millis  float64
	Defined bool
}

// Undefined is the average of an empty set.
var Undefined = Average{}

// String renders the average, or "undefined".
func (a Average) String() string {
	if !a.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%.2fms", a.Millis)
}

// MarshalJSON encodes an undefined average as null.
func (a Average) MarshalJSON() ([]byte, error) {
	if !a.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(a.Millis)
}

// UnmarshalJSON accepts null or a number.
func (a *Average) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = Undefined
		return nil
	}
	var millis float64
	if err := json.Unmarshal(b, &millis); err != nil {
		return err
	}
	*a = Average{Millis: millis, Defined: true}
	return nil
}

// MarshalYAML encodes an undefined average as null.
func (a Average) MarshalYAML() (interface{}, error) {
	if !a.Defined {
		return nil, nil
	}
	return a.Millis, nil
}

// summarize builds the report for a settled batch. A panic while
// aggregating yields a degraded report instead of escaping to the caller.
func summarize(runID, target string, outcomes []Outcome, settled time.Duration, rec *metrics.Recorder) (report *Report) {
	defer func() {
		if r := recover(); r != nil {
			report = degraded(runID, target, settled, fmt.Sprintf("aggregation failed: %v", r))
		}
	}()

	report = &Report{
		RunID:              runID,
		Target:             target,
		RequestsIssued:     len(outcomes),
		TotalElapsed:       settled,
		TotalElapsedMillis: settled.Milliseconds(),
		StatusCodes:        make(map[int]int),
		Failures:           make(map[FailureKind]int),
		HealthStatuses:     make(map[string]int),
		Outcomes:           outcomes,
	}

	ttfb := metrics.NewRecorder()
	var successTotal time.Duration
	for _, o := range outcomes {
		if !o.Success {
			report.RequestsFailed++
			report.Failures[o.Kind]++
			continue
		}

		report.RequestsSucceeded++
		report.StatusCodes[o.StatusCode]++
		if o.HealthStatus != "" {
			report.HealthStatuses[o.HealthStatus]++
		}
		if o.ConnectionReused {
			report.ConnectionsReused++
		}
		successTotal += o.Elapsed
		rec.Record(o.Elapsed)
		ttfb.Record(o.TimeToFirstByte)
	}

	report.AverageSuccessLatency = Undefined
	if report.RequestsSucceeded > 0 {
		mean := successTotal / time.Duration(report.RequestsSucceeded)
		report.AverageSuccessLatency = Average{
			Millis:  float64(mean) / float64(time.Millisecond),
			Defined: true,
		}
		stats := rec.Stats()
		report.Latency = &stats
		firstByte := ttfb.Stats()
		report.TimeToFirstByte = &firstByte
	}

	return report
}

func degraded(runID, target string, settled time.Duration, reason string) *Report {
	return &Report{
		RunID:                 runID,
		Target:                target,
		AverageSuccessLatency: Undefined,
		TotalElapsed:          settled,
		TotalElapsedMillis:    settled.Milliseconds(),
		FailureReason:         reason,
	}
}
