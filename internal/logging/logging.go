// Package logging builds the logrus logger shared by the CLI and the HTTP
// service. The library itself logs nowhere unless a logger is injected.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Accepted formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "info"

var (
	ErrInvalidLevel  = errors.New("invalid log level")
	ErrInvalidFormat = errors.New("invalid log format")
)

// New returns a logger writing to w at level in format.
// Empty level and format select info and text.
func New(w io.Writer, level, format string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(w)

	if err := configure(log, level, format); err != nil {
		return nil, err
	}
	return log, nil
}

// Validate checks level and format without building a logger.
func Validate(level, format string) error {
	return configure(logrus.New(), level, format)
}

func configure(log *logrus.Logger, level, format string) error {
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("%w: %q (use debug, info, warn or error)", ErrInvalidLevel, level)
	}
	log.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", FormatText:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case FormatJSON:
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("%w: %q (use text or json)", ErrInvalidFormat, format)
	}
	return nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
