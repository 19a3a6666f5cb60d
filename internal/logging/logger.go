package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup installs the JSON stdout logger as the slog default. LOG_LEVEL
// (debug, info, warn, error) overrides the info default.
func Setup() {
	slog.SetDefault(slog.New(NewStdoutHandler(os.Stdout)))
}

// NewStdoutHandler returns the JSON handler used for console output, tagged
// with the service name so records can be told apart in shared log sinks.
func NewStdoutHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(os.Getenv("LOG_LEVEL")),
	}).WithAttrs([]slog.Attr{slog.String("service", "resume-billing")})
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
