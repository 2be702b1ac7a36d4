// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package util

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the process-wide logger. It discards everything until
// InitLogger is called.
var Logger = slog.New(slog.DiscardHandler)

// DebugEnv forces debug logging when set to any non-empty value.
const DebugEnv = "JSBRIDGE_DEBUG"

// ParseLevel maps a config log level to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (must be debug, info, warn or error)", s)
	}
}

// NewLogger builds a logger writing to w. format is "text" or "json".
// Set JSBRIDGE_DEBUG=1 to force debug level regardless of level.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if os.Getenv(DebugEnv) != "" {
		lvl = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "", "text":
		// Drop the timestamp for cleaner CLI output
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		}
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (must be text or json)", format)
	}
}

// InitLogger initializes the global logger from cfg. Logs go to stderr so
// stdout stays free for results and JSON-RPC frames.
func InitLogger(cfg Config) error {
	l, err := NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	Logger = l
	return nil
}

// Debug logs a debug message (only shown at debug level)
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}
