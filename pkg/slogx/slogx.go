package slogx

import (
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// Redacted replaces the value of sensitive attributes.
const Redacted = "[redacted]"

// DefaultRedactKeys are attribute keys whose values never reach the output.
// Partner tokens and secrets are bearer credentials.
var DefaultRedactKeys = []string{"token", "secret", "authorization", "admin_token"}

type Config struct {
	Service string
	Version string
	Env     string // e.g. "dev", "prod"
	Level   string // e.g. "debug", "info", "warn", "error"
	Format  string // e.g. "json", "text"

	// Output defaults to os.Stdout.
	Output io.Writer
	// RedactKeys defaults to DefaultRedactKeys. Matching is case-insensitive.
	RedactKeys []string
}

// New returns a configured slog.Logger and installs it as the default.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	redact := cfg.RedactKeys
	if redact == nil {
		redact = DefaultRedactKeys
	}

	opts := &slog.HandlerOptions{
		AddSource:   cfg.Env == "dev",
		Level:       ParseLevel(cfg.Level),
		ReplaceAttr: redactor(redact),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"env", cfg.Env,
	)

	slog.SetDefault(logger)
	return logger
}

func redactor(keys []string) func([]string, slog.Attr) slog.Attr {
	lowered := make([]string, len(keys))
	for i, k := range keys {
		lowered[i] = strings.ToLower(k)
	}
	return func(_ []string, a slog.Attr) slog.Attr {
		if slices.Contains(lowered, strings.ToLower(a.Key)) {
			return slog.String(a.Key, Redacted)
		}
		return a
	}
}

// ParseLevel maps a string to slog.Level. Unknown values mean info.
func ParseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
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
