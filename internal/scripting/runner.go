// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package scripting runs script text in an embedded engine and reads a named
// global binding back out of it.
//
// The engine is abstracted behind Engine, Runtime and Context so the
// lifecycle in Host can classify failures per stage and be tested without a
// real interpreter. GojaEngine is the production implementation.
package scripting

import "github.com/aplane-algo/jsbridge/internal/dynamic"

// Engine creates isolated runtimes. Implementations must be safe for
// concurrent use; runtimes they return are not.
type Engine interface {
	NewRuntime() (Runtime, error)
}

// Runtime is one isolated interpreter instance.
type Runtime interface {
	// NewContext creates a fresh global scope bound to this runtime.
	NewContext() (Context, error)

	// Close releases the runtime. Contexts created from it become unusable.
	Close()
}

// Context is a single global scope.
//
// It does NOT handle:
//   - File I/O (loading scripts from disk)
//   - Timeouts or context cancellation (see Host)
type Context interface {
	// Run executes source, discarding its completion value.
	// Errors include syntax errors and uncaught exceptions.
	Run(name, source string) error

	// Lookup resolves name in the global scope. It returns an error
	// wrapping ErrBindingNotFound if the name is not defined.
	Lookup(name string) (dynamic.Value, error)

	// Interrupt stops the currently running script. Reads after an
	// interrupt fail with an error wrapping dynamic.ErrInterrupted.
	// Safe to call from another goroutine.
	Interrupt(reason string)
}
