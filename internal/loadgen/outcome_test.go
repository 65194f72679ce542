package loadgen

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func dialError(errno syscall.Errno) error {
	return &url.Error{
		Op:  "Get",
		URL: "http://127.0.0.1:1/health",
		Err: &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", errno)},
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"nil", nil, ""},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), FailureTimeout},
		{"net timeout", &url.Error{Op: "Get", URL: "http://x", Err: timeoutErr{}}, FailureTimeout},
		{"refused", dialError(syscall.ECONNREFUSED), FailureConnectionRefused},
		{"reset", dialError(syscall.ECONNRESET), FailureConnectionReset},
		{"unreachable", dialError(syscall.ENETUNREACH), FailureNetworkUnreachable},
		{"host unreachable", dialError(syscall.EHOSTUNREACH), FailureNetworkUnreachable},
		{"dns", &url.Error{Op: "Get", URL: "http://nope", Err: &net.OpError{Op: "dial", Err: &net.DNSError{Err: "no such host", Name: "nope"}}}, FailureDNS},
		{"tls unknown authority", &url.Error{Op: "Get", URL: "https://x", Err: x509.UnknownAuthorityError{}}, FailureTLS},
		{"eof", &url.Error{Op: "Get", URL: "http://x", Err: io.EOF}, FailureEOF},
		{"parse", &url.Error{Op: "parse", URL: "::", Err: errors.New("missing protocol scheme")}, FailureInvalidURL},
		{"scheme text", errors.New(`Get "ftp://x": unsupported protocol scheme "ftp"`), FailureInvalidURL},
		{"refused text", errors.New("dial tcp 10.0.0.1:80: connect: connection refused"), FailureConnectionRefused},
		{"tls text", errors.New("remote error: tls: handshake failure"), FailureTLS},
		{"unknown", errors.New("something odd"), FailureOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestDescribe(t *testing.T) {
	kinds := []FailureKind{
		FailureTimeout, FailureConnectionRefused, FailureConnectionReset, FailureDNS,
		FailureTLS, FailureNetworkUnreachable, FailureEOF, FailureInvalidURL, FailureOther,
	}
	seen := make(map[string]bool)
	for _, kind := range kinds {
		hint := Describe(kind)
		assert.NotEmpty(t, hint)
		seen[hint] = true
	}
	assert.Len(t, seen, len(kinds), "each kind has its own hint")
}
