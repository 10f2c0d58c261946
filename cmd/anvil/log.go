package main

import (
	"io"
	"log/slog"
)

// setupLogging installs the default logger. Only warnings and teardown
// failures show unless --debug is set.
func setupLogging(writer io.Writer, debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
