// Package logger собирает zerolog-логгер по настройкам приложения.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New логгер с отметками времени. format: console или json.
func New(writer io.Writer, level zerolog.Level, format string) zerolog.Logger {
	if format != FormatJSON {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}
	}
	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// FromConfig логгер в stderr по строковым настройкам.
func FromConfig(level, format string) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	switch format {
	case "", FormatConsole, FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", format)
	}
	return New(os.Stderr, lvl, format), nil
}

// ParseLevel разбирает уровень, пустая строка означает info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("parse log level: %w", err)
	}
	return lvl, nil
}

// Component дочерний логгер с полем component.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
