package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTerminal_NonFile(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestSupportsColors(t *testing.T) {
	t.Setenv("FORCE_COLOR", "")
	t.Setenv("NO_COLOR", "1")
	assert.False(t, SupportsColors())

	t.Setenv("NO_COLOR", "")
	t.Setenv("FORCE_COLOR", "1")
	assert.True(t, SupportsColors())
}

func TestNoColor(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, NoColor(&buf, true))
	assert.True(t, NoColor(&buf, false), "buffers are never terminals")
}

func TestColorSchemes(t *testing.T) {
	for _, c := range DefaultColorScheme().all() {
		assert.NotNil(t, c)
	}

	plain := NoColorScheme()
	assert.Equal(t, "ok", plain.Success.Sprint("ok"))
	assert.Equal(t, "ok", plain.Dim.Sprint("ok"))
}

func TestIcons(t *testing.T) {
	assert.Equal(t, "✓", SuccessIcon(true))
	assert.Equal(t, "✗", ErrorIcon(true))
	assert.Equal(t, "⚠", WarningIcon(true))
}
