package app

import (
	"io"
	"log/slog"
)

// logLevels maps the accepted -log-level spellings to slog levels. Unknown
// spellings fall back to info; the CLI rejects them earlier anyway.
var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// newLogger builds the app-scoped logger writing to the app's output. Each
// App owns its own instance, so embedded engines and parallel tests never
// contend on the global logger.
func newLogger(level, format string, outW io.Writer) *slog.Logger {
	lvl, ok := logLevels[level]
	if !ok {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
