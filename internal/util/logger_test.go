// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package util

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLoggerText(t *testing.T) {
	t.Setenv(DebugEnv, "")
	var buf bytes.Buffer
	l, err := NewLogger(&buf, "info", "text")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	l.Debug("hidden")
	l.Info("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level: %q", out)
	}
	if !strings.Contains(out, "msg=shown k=v") {
		t.Errorf("output = %q, want info record", out)
	}
	if strings.Contains(out, "time=") {
		t.Errorf("output = %q, want no timestamp", out)
	}
}

func TestNewLoggerDebugEnv(t *testing.T) {
	t.Setenv(DebugEnv, "1")
	var buf bytes.Buffer
	l, err := NewLogger(&buf, "error", "json")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	l.Debug("forced")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("json record %q: %v", buf.String(), err)
	}
	if rec["msg"] != "forced" {
		t.Errorf("msg = %v, want forced", rec["msg"])
	}
}

func TestNewLoggerInvalidFormat(t *testing.T) {
	if _, err := NewLogger(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Error("NewLogger(xml) error = nil, want error")
	}
}
