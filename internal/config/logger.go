package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
)

// ParseLevel converts a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// NewLogger builds the process logger writing to w. The auto format uses
// text on a terminal and JSON otherwise.
func (c LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level := slog.LevelInfo
	if c.Level != "" {
		var err error
		if level, err = ParseLevel(c.Level); err != nil {
			return nil, err
		}
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(c.Format) {
	case "text":
		handler = slog.NewTextHandler(w, options)
	case "json":
		handler = slog.NewJSONHandler(w, options)
	case "", "auto":
		if f, ok := w.(*os.File); ok && term.IsTerminal(f.Fd()) {
			handler = slog.NewTextHandler(w, options)
		} else {
			handler = slog.NewJSONHandler(w, options)
		}
	default:
		return nil, fmt.Errorf("invalid log format %q: must be text, json or auto", c.Format)
	}
	return slog.New(handler), nil
}
