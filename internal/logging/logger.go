// Package logging configures the zerolog root logger for the process: a
// human-readable console writer on stdout plus an optional JSON file sink.
// Components receive child loggers tagged via [WithComponent]; nothing in
// this package is global.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/backmassage/transmux/internal/config"
	"github.com/backmassage/transmux/internal/term"
)

func init() {
	// Pin the timestamp format so file-sink events are stable across hosts.
	zerolog.TimeFieldFormat = time.RFC3339
}

// Configure builds the root logger from cfg. Console output honors the
// configured color mode; when cfg.LogFile is set, every event is also
// appended there as raw JSON for later inspection. The returned close
// function releases the file sink and is safe to call when no file was
// opened.
func Configure(cfg *config.Config) (zerolog.Logger, func() error, error) {
	term.Configure(cfg.ColorMode)

	console := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
		NoColor:    !term.Enabled(),
	}

	var sink io.Writer = console
	closeFn := func() error { return nil }
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("open log file: %w", err)
		}
		sink = zerolog.MultiLevelWriter(console, f)
		closeFn = f.Close
	}

	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(sink).Level(level).With().Timestamp().Logger()
	return logger, closeFn, nil
}

// WithComponent returns a child logger tagged with the component name, so
// every event it emits carries a "component" field.
func WithComponent(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
