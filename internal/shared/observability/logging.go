package observability

import (
	"context"
	"io"
	"log/slog"
)

// LevelTrace sits below Debug for per-node scanner detail.
const LevelTrace = slog.Level(-8)

// LevelForVerbosity maps the number of -v flags to a log level.
func LevelForVerbosity(v int) slog.Level {
	switch {
	case v >= 2:
		return LevelTrace
	case v == 1:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a text logger writing to w that prints LevelTrace as
// TRACE.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}))
}

// Trace logs at LevelTrace through the default logger.
func Trace(ctx context.Context, msg string, args ...any) {
	slog.Default().Log(ctx, LevelTrace, msg, args...)
}
