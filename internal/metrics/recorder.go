// Package metrics records request latencies in an HDR histogram.
package metrics

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram bounds in microseconds: 1µs to 1 hour, 3 significant figures.
const (
	histogramMin     int64 = 1
	histogramMax     int64 = 3600000000
	histogramSigFigs       = 3
)

// Recorder accumulates latencies and reports percentile statistics.
//
// Recorder is safe for concurrent use. hdrhistogram.Histogram is not, so
// every access goes through mu.
type Recorder struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

// LatencyStats contains latency statistics. Encoded as JSON or YAML every
// duration is written as fractional milliseconds under a *Millis key.
type LatencyStats struct {
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration
	P50    time.Duration
	P90    time.Duration
	P95    time.Duration
	P99    time.Duration
	Count  int64
}

type latencyMillis struct {
	Min    float64 `json:"minMillis" yaml:"minMillis"`
	Max    float64 `json:"maxMillis" yaml:"maxMillis"`
	Mean   float64 `json:"meanMillis" yaml:"meanMillis"`
	StdDev float64 `json:"stdDevMillis" yaml:"stdDevMillis"`
	P50    float64 `json:"p50Millis" yaml:"p50Millis"`
	P90    float64 `json:"p90Millis" yaml:"p90Millis"`
	P95    float64 `json:"p95Millis" yaml:"p95Millis"`
	P99    float64 `json:"p99Millis" yaml:"p99Millis"`
	Count  int64   `json:"count" yaml:"count"`
}

func (s LatencyStats) millis() latencyMillis {
	ms := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
	return latencyMillis{
		Min:    ms(s.Min),
		Max:    ms(s.Max),
		Mean:   ms(s.Mean),
		StdDev: ms(s.StdDev),
		P50:    ms(s.P50),
		P90:    ms(s.P90),
		P95:    ms(s.P95),
		P99:    ms(s.P99),
		Count:  s.Count,
	}
}

func (s LatencyStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.millis())
}

func (s LatencyStats) MarshalYAML() (interface{}, error) {
	return s.millis(), nil
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		hist: hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
	}
}

// Record adds one latency sample. Values outside the histogram range are clamped.
func (r *Recorder) Record(d time.Duration) {
	micros := d.Microseconds()
	if micros < histogramMin {
		micros = histogramMin
	}
	if micros > histogramMax {
		micros = histogramMax
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// RecordValue only fails for out-of-range values, which were clamped above
	_ = r.hist.RecordValue(micros)
}

// Count returns the number of recorded samples.
func (r *Recorder) Count() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hist.TotalCount()
}

// Stats returns a snapshot of the recorded distribution.
// An empty recorder yields zero-valued stats.
func (r *Recorder) Stats() LatencyStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hist.TotalCount() == 0 {
		return LatencyStats{}
	}

	return LatencyStats{
		Min:    micros(r.hist.Min()),
		Max:    micros(r.hist.Max()),
		Mean:   time.Duration(r.hist.Mean() * float64(time.Microsecond)),
		StdDev: time.Duration(r.hist.StdDev() * float64(time.Microsecond)),
		P50:    micros(r.hist.ValueAtQuantile(50)),
		P90:    micros(r.hist.ValueAtQuantile(90)),
		P95:    micros(r.hist.ValueAtQuantile(95)),
		P99:    micros(r.hist.ValueAtQuantile(99)),
		Count:  r.hist.TotalCount(),
	}
}

// Reset clears all recorded samples.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hist.Reset()
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
