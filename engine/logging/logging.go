// Package logging builds the zerolog loggers used across the engine.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level   string `mapstructure:"level" yaml:"level"`     // debug, info, warn or error
	Console bool   `mapstructure:"console" yaml:"console"` // human readable output instead of JSON
	File    string `mapstructure:"file" yaml:"file"`       // optional log file, appended to
}

// DefaultConfig returns console logging at info level.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Console: true,
	}
}

// Logger wraps a zerolog.Logger and the file it may write to.
type Logger struct {
	zlog zerolog.Logger
	file *os.File
}

// New creates a Logger writing to out, and to cfg.File when set.
//
// Parameters:
//   - cfg: the logger configuration
//   - out: the primary writer, normally os.Stdout
//
// Returns:
//   - *Logger: the logger
//   - error: an error if the log file cannot be opened
func New(cfg Config, out io.Writer) (*Logger, error) {
	writers := []io.Writer{out}
	if cfg.Console {
		writers[0] = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
		}
	}

	var file *os.File
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		writers = append(writers, f)
	}

	zlog := zerolog.New(io.MultiWriter(writers...)).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("app", "oxy-bloom").
		Logger()

	return &Logger{zlog: zlog, file: file}, nil
}

// ParseLevel maps a level name to a zerolog level. Unknown names select info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Zerolog returns the underlying logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// Component returns a logger tagged with the component name.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.zlog.With().Str("component", name).Logger()
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
