// Package logger holds the process-wide structured logger. Packages log
// through L() so tests stay quiet by default and main controls the sink.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var base = zap.NewNop().Sugar()

// Init replaces the global logger. level is one of debug, info, warn, error;
// format is "json" for machine-readable output, anything else for console.
func Init(level, format string) error {
	cfg := zap.NewProductionConfig()
	if format != "json" {
		cfg = zap.NewDevelopmentConfig()
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	base = l.Sugar()
	return nil
}

// L returns the current global logger.
func L() *zap.SugaredLogger {
	return base
}

// Sync flushes buffered log entries. Called once at shutdown.
func Sync() {
	_ = base.Sync()
}
