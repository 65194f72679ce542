package loadgen

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	httpclient "github.com/wesleyorama2/stampede/internal/http"
	"github.com/wesleyorama2/stampede/internal/metrics"
)

func outcomeOK(status int, elapsed time.Duration) Outcome {
	return succeeded("id", status, elapsed, "")
}

func outcomeFail(kind FailureKind, elapsed time.Duration) Outcome {
	return Outcome{RequestID: "id", Kind: kind, Error: string(kind), Elapsed: elapsed}
}

func TestSummarize_Mixed(t *testing.T) {
	outcomes := []Outcome{
		outcomeOK(200, 10*time.Millisecond),
		outcomeOK(503, 30*time.Millisecond),
		outcomeFail(FailureTimeout, 500*time.Millisecond),
		outcomeFail(FailureTimeout, 500*time.Millisecond),
		outcomeFail(FailureConnectionRefused, time.Millisecond),
	}

	report := summarize("run", "http://x/health", outcomes, 510*time.Millisecond, metrics.NewRecorder())

	assert.Equal(t, 5, report.RequestsIssued)
	assert.Equal(t, 2, report.RequestsSucceeded)
	assert.Equal(t, 3, report.RequestsFailed)
	assert.Equal(t, map[int]int{200: 1, 503: 1}, report.StatusCodes)
	assert.Equal(t, []int{200, 503}, report.StatusCodeList())
	assert.Equal(t, []FailureKind{FailureTimeout, FailureConnectionRefused}, report.FailureKinds())

	require.True(t, report.AverageSuccessLatency.Defined)
	assert.InDelta(t, 20.0, report.AverageSuccessLatency.Millis, 0.001)
	assert.Equal(t, "20.00ms", report.AverageSuccessLatency.String())
	assert.InDelta(t, 0.4, report.SuccessRate(), 0.0001)
	assert.Equal(t, int64(510), report.TotalElapsedMillis)

	require.NotNil(t, report.Latency)
	assert.Equal(t, int64(2), report.Latency.Count)
	require.NotNil(t, report.TimeToFirstByte)
	assert.Equal(t, int64(2), report.TimeToFirstByte.Count)
}

func TestSummarize_ConnectionPhases(t *testing.T) {
	fresh := outcomeOK(200, 20*time.Millisecond).withTiming(httpclient.TimingInfo{
		TCPConnectTime:  2 * time.Millisecond,
		TimeToFirstByte: 15 * time.Millisecond,
	})
	reused := outcomeOK(200, 10*time.Millisecond).withTiming(httpclient.TimingInfo{
		TimeToFirstByte:  5 * time.Millisecond,
		ConnectionReused: true,
	})

	assert.InDelta(t, 2.0, fresh.ConnectMillis, 0.001)
	assert.InDelta(t, 15.0, fresh.TimeToFirstByteMillis, 0.001)
	assert.Zero(t, reused.ConnectMillis)

	report := summarize("run", "t", []Outcome{fresh, reused, outcomeFail(FailureEOF, time.Millisecond)},
		20*time.Millisecond, metrics.NewRecorder())

	assert.Equal(t, 1, report.ConnectionsReused)
	require.NotNil(t, report.TimeToFirstByte)
	assert.InDelta(t, float64(5*time.Millisecond), float64(report.TimeToFirstByte.Min), float64(50*time.Microsecond))
	assert.InDelta(t, float64(15*time.Millisecond), float64(report.TimeToFirstByte.Max), float64(50*time.Microsecond))
}

func TestSummarize_AllFailedHasNoNaN(t *testing.T) {
	outcomes := []Outcome{
		outcomeFail(FailureDNS, time.Millisecond),
		outcomeFail(FailureDNS, time.Millisecond),
	}

	report := summarize("run", "t", outcomes, time.Millisecond, metrics.NewRecorder())

	assert.Zero(t, report.RequestsSucceeded)
	assert.False(t, report.AverageSuccessLatency.Defined)
	assert.False(t, math.IsNaN(report.AverageSuccessLatency.Millis))
	assert.Nil(t, report.Latency)
}

func TestSummarize_PanicBecomesDegradedReport(t *testing.T) {
	outcomes := []Outcome{outcomeOK(200, time.Millisecond)}

	// A nil recorder makes aggregation panic on the first success
	report := summarize("run", "t", outcomes, 42*time.Millisecond, nil)

	require.NotNil(t, report)
	assert.True(t, report.Degraded())
	assert.True(t, report.HasFailures())
	assert.Contains(t, report.FailureReason, "aggregation failed")
	assert.Zero(t, report.RequestsIssued)
	assert.Zero(t, report.RequestsSucceeded)
	assert.False(t, report.AverageSuccessLatency.Defined)
	assert.Equal(t, int64(42), report.TotalElapsedMillis)
}

func TestAverage_JSON(t *testing.T) {
	data, err := json.Marshal(Undefined)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	data, err = json.Marshal(Average{Millis: 12.5, Defined: true})
	require.NoError(t, err)
	assert.Equal(t, "12.5", string(data))

	var avg Average
	require.NoError(t, json.Unmarshal([]byte("null"), &avg))
	assert.False(t, avg.Defined)

	require.NoError(t, json.Unmarshal([]byte("7.25"), &avg))
	assert.Equal(t, Average{Millis: 7.25, Defined: true}, avg)
}

func TestAverage_YAML(t *testing.T) {
	data, err := yaml.Marshal(map[string]Average{"avg": Undefined})
	require.NoError(t, err)
	assert.Equal(t, "avg: null\n", string(data))
}

func TestReport_JSONShape(t *testing.T) {
	report := summarize("run-1", "http://x/health", []Outcome{outcomeOK(200, 10*time.Millisecond)}, 12*time.Millisecond, metrics.NewRecorder())

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded["runId"])
	assert.Equal(t, float64(1), decoded["requestsIssued"])
	assert.Equal(t, float64(10), decoded["averageSuccessLatencyMillis"])
	assert.Equal(t, float64(12), decoded["totalElapsedMillis"])
	assert.NotContains(t, decoded, "failureReason")

	latency, ok := decoded["latency"].(map[string]interface{})
	require.True(t, ok)
	assert.InDelta(t, 10.0, latency["p50Millis"], 0.05)
	assert.InDelta(t, 10.0, latency["maxMillis"], 0.05)
	assert.NotContains(t, latency, "p50")
}
