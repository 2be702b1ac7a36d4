// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package testutil provides reusable test infrastructure and utilities.
package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/aplane-algo/jsbridge/internal/scripting"
	"github.com/aplane-algo/jsbridge/internal/service"
)

// NewHost returns a goja-backed script host with opts.
func NewHost(t *testing.T, opts scripting.HostOptions) *scripting.Host {
	t.Helper()
	return scripting.NewHost(scripting.NewGojaEngine(nil), opts)
}

// NewService returns a service over NewHost(t, opts).
func NewService(t *testing.T, opts scripting.HostOptions) *service.Service {
	t.Helper()
	return service.New(NewHost(t, opts), nil)
}

// TempScript writes source to a temporary .js file, returning the path.
// The file is automatically cleaned up when the test completes.
func TempScript(t *testing.T, source string) string {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "script-*.js")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := f.WriteString(source); err != nil {
		_ = f.Close()
		t.Fatalf("Failed to write temp file: %v", err)
	}
	_ = f.Close()
	return f.Name()
}

// AssertError checks that an error matches expected criteria.
func AssertError(t *testing.T, err error, shouldError bool, msgContains string) {
	t.Helper()

	if !shouldError {
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		return
	}
	if err == nil {
		t.Error("Expected an error but got nil")
		return
	}
	if msgContains != "" && !strings.Contains(err.Error(), msgContains) {
		t.Errorf("Error message %q should contain %q", err.Error(), msgContains)
	}
}
