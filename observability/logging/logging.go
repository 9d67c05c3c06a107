package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// levelEnvVar selects the minimum log level for a streamvault daemon. Accepted
// values are debug, info, warn, and error; anything else falls back to info.
const levelEnvVar = "STREAMVAULT_LOG_LEVEL"

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

// Setup configures process-wide structured JSON logging for a streamvault
// daemon and returns the root logger. Every line carries the daemon name and,
// when provided, the deployment environment. The minimum level is read from
// STREAMVAULT_LOG_LEVEL.
func Setup(daemon, env string) *slog.Logger {
	return newLogger(os.Stdout, daemon, env, parseLevel(os.Getenv(levelEnvVar)))
}

func newLogger(w io.Writer, daemon, env string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
			case slog.LevelKey:
				attr.Key = "level"
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.MessageKey:
				attr.Key = "message"
			}
			return attr
		},
	})

	root := slog.New(handler).With(slog.String("daemon", strings.TrimSpace(daemon)))
	if env = strings.TrimSpace(env); env != "" {
		root = root.With(slog.String("env", env))
	}

	// Route the std log package through the same handler so third-party
	// packages logging via log.Printf land in the structured stream.
	slog.SetDefault(root)
	log.SetFlags(0)
	log.SetPrefix("")

	return root
}
