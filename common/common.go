// Package common holds shared metadata and logger setup for bootunlock
// binaries.
package common

import (
	"log/slog"
	"os"
)

// PackageName identifies this project in logs.
const PackageName = "bootunlock"

// Version is set at build time.
var Version = "dev"

// LoggingOpts configures SetupLogger.
type LoggingOpts struct {
	Debug   bool
	JSON    bool
	Service string
	Version string
}

// SetupLogger builds the process-wide structured logger. Output goes to
// stderr so it never interleaves with prompt text on stdout.
func SetupLogger(opts *LoggingOpts) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With("service", opts.Service)
	}
	if opts.Version != "" {
		logger = logger.With("version", opts.Version)
	}
	return logger
}
