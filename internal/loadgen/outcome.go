package loadgen

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"

	httpclient "github.com/wesleyorama2/stampede/internal/http"
)

// Outcome is the settled result of one issued request.
type Outcome struct {
	RequestID string `json:"requestId" yaml:"requestId"`
	Success   bool   `json:"success" yaml:"success"`

	// StatusCode is set on success only. Any HTTP status counts as success.
	StatusCode int `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`

	// Error and Kind are set on failure only.
	Error string      `json:"error,omitempty" yaml:"error,omitempty"`
	Kind  FailureKind `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Elapsed is measured from the shared batch start, not from the moment
	// this particular request was issued.
	Elapsed       time.Duration `json:"-" yaml:"-"`
	ElapsedMillis int64         `json:"elapsedMillis" yaml:"elapsedMillis"`

	// HealthStatus is the "status" field of a JSON response body, if any.
	HealthStatus string `json:"healthStatus,omitempty" yaml:"healthStatus,omitempty"`

	// Connection phases, success only. Connect is zero on a reused connection.
	TimeToFirstByte       time.Duration `json:"-" yaml:"-"`
	TimeToFirstByteMillis float64       `json:"timeToFirstByteMillis,omitempty" yaml:"timeToFirstByteMillis,omitempty"`
	Connect               time.Duration `json:"-" yaml:"-"`
	ConnectMillis         float64       `json:"connectMillis,omitempty" yaml:"connectMillis,omitempty"`
	ConnectionReused      bool          `json:"connectionReused,omitempty" yaml:"connectionReused,omitempty"`
}

// FailureKind classifies a transport failure.
type FailureKind string

const (
	FailureTimeout            FailureKind = "timeout"
	FailureConnectionRefused  FailureKind = "connection_refused"
	FailureConnectionReset    FailureKind = "connection_reset"
	FailureDNS                FailureKind = "dns"
	FailureTLS                FailureKind = "tls"
	FailureNetworkUnreachable FailureKind = "network_unreachable"
	FailureEOF                FailureKind = "eof"
	FailureInvalidURL         FailureKind = "invalid_url"
	FailureOther              FailureKind = "other"
)

func succeeded(id string, status int, elapsed time.Duration, health string) Outcome {
	return Outcome{
		RequestID:     id,
		Success:       true,
		StatusCode:    status,
		Elapsed:       elapsed,
		ElapsedMillis: elapsed.Milliseconds(),
		HealthStatus:  health,
	}
}

// withTiming copies the response's connection phases onto o.
func (o Outcome) withTiming(t httpclient.TimingInfo) Outcome {
	o.TimeToFirstByte = t.TimeToFirstByte
	o.TimeToFirstByteMillis = millis(t.TimeToFirstByte)
	o.Connect = t.TCPConnectTime
	o.ConnectMillis = millis(t.TCPConnectTime)
	o.ConnectionReused = t.ConnectionReused
	return o
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func failed(id string, err error, elapsed time.Duration) Outcome {
	return Outcome{
		RequestID:     id,
		Error:         err.Error(),
		Kind:          Classify(err),
		Elapsed:       elapsed,
		ElapsedMillis: elapsed.Milliseconds(),
	}
}

// Classify maps a transport error to a FailureKind. Typed errors are checked
// first; the error text is only consulted when nothing in the chain matches.
func Classify(err error) FailureKind {
	if err == nil {
		return ""
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FailureDNS
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Op == "parse" {
		return FailureInvalidURL
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	if isTLSError(err) {
		return FailureTLS
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return FailureConnectionRefused
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return FailureConnectionReset
	case errors.Is(err, syscall.ENETUNREACH), errors.Is(err, syscall.EHOSTUNREACH):
		return FailureNetworkUnreachable
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return FailureEOF
	}

	return classifyMessage(err.Error())
}

func isTLSError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var invalidCert x509.CertificateInvalidError

	return errors.As(err, &verifyErr) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidCert)
}

func classifyMessage(msg string) FailureKind {
	msg = strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "deadline exceeded"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"):
		return FailureTimeout
	case strings.Contains(msg, "no such host"),
		strings.Contains(msg, "dial tcp: lookup"):
		return FailureDNS
	case strings.Contains(msg, "connection refused"):
		return FailureConnectionRefused
	case strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "broken pipe"):
		return FailureConnectionReset
	case strings.Contains(msg, "network is unreachable"),
		strings.Contains(msg, "no route to host"):
		return FailureNetworkUnreachable
	case strings.Contains(msg, "tls"),
		strings.Contains(msg, "x509"),
		strings.Contains(msg, "certificate"):
		return FailureTLS
	case strings.Contains(msg, "unsupported protocol scheme"),
		strings.Contains(msg, "no host in request url"),
		strings.Contains(msg, "invalid url"):
		return FailureInvalidURL
	case strings.Contains(msg, "eof"):
		return FailureEOF
	}

	return FailureOther
}

// Describe returns a short operator hint for a failure kind.
func Describe(kind FailureKind) string {
	switch kind {
	case FailureTimeout:
		return "request timed out, the target is slow or the timeout is too small"
	case FailureConnectionRefused:
		return "connection refused, check that the target is running on that port"
	case FailureConnectionReset:
		return "connection reset by the target"
	case FailureDNS:
		return "DNS resolution failed, check the hostname"
	case FailureTLS:
		return "TLS handshake or certificate verification failed"
	case FailureNetworkUnreachable:
		return "network or host unreachable"
	case FailureEOF:
		return "connection closed before a response was received"
	case FailureInvalidURL:
		return "target URL is malformed or uses an unsupported scheme"
	default:
		return "request failed"
	}
}
