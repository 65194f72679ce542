// Package logger builds the zap loggers used by the CLI and the demo server.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Modes accepted by New.
const (
	ModeDebug      = "debug"
	ModeRelease    = "release"
	ModeQuiet      = "quiet"
	DefaultMode    = ModeRelease
	outputToStderr = "stderr"
)

// New builds a logger for the given mode.
//
// debug: human readable, colored levels, debug and above.
// release: JSON, info and above.
// quiet: discards everything.
//
// Logs go to stderr so that stdout stays free for reports.
func New(mode string) (*zap.Logger, error) {
	var config zap.Config

	switch strings.ToLower(mode) {
	case ModeDebug:
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case ModeRelease, "":
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "ts"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case ModeQuiet:
		return zap.NewNop(), nil
	default:
		return nil, fmt.Errorf("unknown log mode %q (want %s, %s or %s)", mode, ModeDebug, ModeRelease, ModeQuiet)
	}

	config.OutputPaths = []string{outputToStderr}
	config.ErrorOutputPaths = []string{outputToStderr}

	log, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return log, nil
}

// OrNop returns log, or a no-op logger when log is nil.
func OrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
