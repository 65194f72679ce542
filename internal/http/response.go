package http

import (
	"net/http"
	"time"

	"github.com/wesleyorama2/stampede/pkg/jsonpath"
)

// TimingInfo breaks a request down into the phases reported by httptrace.
// Phases that did not happen (a reused connection skips DNS and connect)
// are left at zero.
type TimingInfo struct {
	StartTime           time.Time
	DNSLookupTime       time.Duration
	TCPConnectTime      time.Duration
	TLSHandshakeTime    time.Duration
	TimeToFirstByte     time.Duration
	ContentTransferTime time.Duration
	TotalTime           time.Duration

	// ConnectionReused is set when the transport handed out an idle
	// pooled connection instead of dialing.
	ConnectionReused bool
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Timing     TimingInfo
}

// Lookup reads a scalar at a JSONPath such as $.status. It reports false
// when the body is not JSON or the path does not resolve to a scalar.
func (r *Response) Lookup(path string) (string, bool) {
	return jsonpath.Lookup(r.Body, path)
}
