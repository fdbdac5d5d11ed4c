// Package logger builds the process-wide zap logger used for verbose
// diagnostics; user-facing progress goes through the event stream and
// the anchor TUI instead.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console-encoded logger, at debug
// level when verbose is set, warn level otherwise.
func New(verbose bool) *zap.Logger {
	level := zap.WarnLevel
	if verbose {
		level = zap.DebugLevel
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.DisableStacktrace = true

	log, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
