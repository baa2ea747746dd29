package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"spotbnb/internal/config"

	"github.com/rs/zerolog"
)

// New builds the process logger from the logging and app sections.
// Empty fields fall back to JSON at info level on stdout.
func New(cfg config.LoggingConfig, app config.AppConfig) (*zerolog.Logger, io.Closer, error) {
	level := parseLevel(cfg.Level, app)

	var (
		out    io.Writer = os.Stdout
		closer io.Closer
	)

	switch normalize(cfg.Output) {
	case "", "stdout":
	case "stderr":
		out = os.Stderr
	case "file":
		if cfg.FilePath == "" {
			return nil, nil, fmt.Errorf("logging.output=file requires logging.file_path")
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = file
		closer = file
	default:
		return nil, nil, fmt.Errorf("unknown logging.output %q", cfg.Output)
	}

	if normalize(cfg.Format) == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger := newWithWriter(out, level, app)
	return &logger, closer, nil
}

func newWithWriter(w io.Writer, level zerolog.Level, app config.AppConfig) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("app", app.Name).
		Str("env", app.Environment).
		Str("version", app.Version).
		Logger()
}

// production defaults to info even when debug is requested by mistake
func parseLevel(raw string, app config.AppConfig) zerolog.Level {
	level, err := zerolog.ParseLevel(normalize(raw))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if app.IsProduction() && level < zerolog.InfoLevel {
		level = zerolog.InfoLevel
	}
	return level
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Component returns a child logger tagged with the subsystem name.
func Component(base *zerolog.Logger, name string) *zerolog.Logger {
	l := base.With().Str("component", name).Logger()
	return &l
}

// FromContext returns the request-scoped logger, or fallback when none is attached.
func FromContext(ctx context.Context, fallback *zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return fallback
}
