package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestValidateTraffic(t *testing.T) {
	tests := []struct {
		name       string
		cfg        TrafficConfig
		requireURL bool
		fields     []string
	}{
		{"empty is fine before merge", TrafficConfig{}, false, nil},
		{"url required after merge", TrafficConfig{}, true, []string{"traffic.url"}},
		{"valid", TrafficConfig{URL: "http://localhost:3001", Requests: intPtr(0)}, true, nil},
		{"bad scheme", TrafficConfig{URL: "ws://localhost"}, true, []string{"traffic.url"}},
		{"no host", TrafficConfig{URL: "http://"}, true, []string{"traffic.url"}},
		{"negative requests", TrafficConfig{URL: "http://x", Requests: intPtr(-1)}, true, []string{"traffic.requests"}},
		{"negative timeout", TrafficConfig{URL: "http://x", Timeout: Duration(-1)}, true, []string{"traffic.timeout"}},
		{"unknown format", TrafficConfig{URL: "http://x", Format: "xml"}, true, []string{"traffic.format"}},
		{
			"several at once",
			TrafficConfig{Requests: intPtr(-5), Format: "csv"},
			true,
			[]string{"traffic.url", "traffic.requests", "traffic.format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := &ValidationErrors{}
			ValidateTraffic("traffic", &tt.cfg, tt.requireURL, errs)

			var fields []string
			for _, e := range errs.Errors {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := &ValidationErrors{}
	assert.Equal(t, "config is valid", errs.Error())

	errs.Add("traffic.url", "a target URL is required")
	assert.Equal(t, "invalid config: traffic.url: a target URL is required", errs.Error())

	errs.Add("", "second")
	assert.Equal(t, "invalid config (2 problems): traffic.url: a target URL is required; second", errs.Error())
}

func TestFile_Validate(t *testing.T) {
	cfg := &File{Server: ServerConfig{Addr: "localhost:3001", RateLimit: 5, Burst: 5}}
	require.NoError(t, cfg.Validate())

	cfg.Server.Burst = -1
	assert.Error(t, cfg.Validate())
}
