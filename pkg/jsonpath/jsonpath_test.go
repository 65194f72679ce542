package jsonpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{"status":"ok","uptime":42,"ready":true,"checks":[{"name":"db","status":"up"}],"meta":{"region":"eu"},"gone":null}`

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"top level string", "$.status", "ok"},
		{"number", "$.uptime", "42"},
		{"bool", "$.ready", "true"},
		{"array element", "$.checks[0].name", "db"},
		{"nested object", "$.meta.region", "eu"},
		{"bracket notation", "$['meta']['region']", "eu"},
		{"null value", "$.gone", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := Extract(sample, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestExtract_Errors(t *testing.T) {
	_, err := Extract("", "$.status")
	assert.Error(t, err)

	_, err = Extract(sample, "")
	assert.Error(t, err)

	_, err = Extract(sample, "$.missing")
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	value, ok := Lookup([]byte(sample), "$.status")
	assert.True(t, ok)
	assert.Equal(t, "ok", value)

	value, ok = Lookup([]byte(sample), "$.checks[0].status")
	assert.True(t, ok)
	assert.Equal(t, "up", value)

	_, ok = Lookup([]byte(sample), "$.meta")
	assert.False(t, ok, "objects are not scalars")

	_, ok = Lookup([]byte(sample), "$.gone")
	assert.False(t, ok)

	_, ok = Lookup([]byte("OK"), "$.status")
	assert.False(t, ok, "plain text body")

	_, ok = Lookup(nil, "$.status")
	assert.False(t, ok)
}
