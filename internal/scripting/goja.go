// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package scripting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/aplane-algo/jsbridge/internal/dynamic"
)

// DefaultMaxCallStackSize bounds JS recursion so runaway scripts fail with a
// script error instead of growing the Go stack.
const DefaultMaxCallStackSize = 10000

// GojaEngine implements Engine using the Goja JavaScript interpreter.
type GojaEngine struct {
	logger           *slog.Logger
	maxCallStackSize int
}

// NewGojaEngine creates a Goja-based engine. Script console output (print,
// console.*) is written to logger; a nil logger discards it.
func NewGojaEngine(logger *slog.Logger) *GojaEngine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GojaEngine{
		logger:           logger,
		maxCallStackSize: DefaultMaxCallStackSize,
	}
}

// WithMaxCallStackSize returns a copy of e whose runtimes use a JS call
// depth limit of n. Values <= 0 select the default.
func (e *GojaEngine) WithMaxCallStackSize(n int) *GojaEngine {
	if n <= 0 {
		n = DefaultMaxCallStackSize
	}
	c := *e
	c.maxCallStackSize = n
	return &c
}

// MaxCallStackSize returns the JS call depth limit of new runtimes.
func (e *GojaEngine) MaxCallStackSize() int {
	return e.maxCallStackSize
}

// NewRuntime creates a new Goja runtime.
func (e *GojaEngine) NewRuntime() (rt Runtime, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("goja: %v", r)
		}
	}()

	vm := goja.New()
	vm.SetMaxCallStackSize(e.maxCallStackSize)

	return &gojaRuntime{vm: vm, logger: e.logger}, nil
}

// Compile-time interface check
var _ Engine = (*GojaEngine)(nil)

type gojaRuntime struct {
	mu     sync.Mutex
	vm     *goja.Runtime
	logger *slog.Logger
	hasCtx bool
	closed bool
}

// NewContext installs the host globals on the runtime. A Goja runtime owns
// exactly one global scope, so only one context can be created.
func (r *gojaRuntime) NewContext() (Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if r.hasCtx {
		return nil, ErrContextInUse
	}

	c := &gojaContext{vm: r.vm, logger: r.logger.With("source", "script")}
	if err := c.registerConsole(); err != nil {
		return nil, err
	}
	// Captured before any script runs so a reassigned Array.isArray
	// cannot change how values are classified.
	isArray, ok := goja.AssertFunction(r.vm.Get("Array").ToObject(r.vm).Get("isArray"))
	if !ok {
		return nil, errors.New("Array.isArray is not a function")
	}
	c.env = &valueEnv{isArray: isArray}
	r.hasCtx = true
	return c, nil
}

func (r *gojaRuntime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

type gojaContext struct {
	vm     *goja.Runtime
	logger *slog.Logger
	env    *valueEnv
}

// registerConsole registers print() and a console object whose methods log
// through the context logger.
func (c *gojaContext) registerConsole() error {
	if err := c.vm.Set("print", c.consoleFunc(slog.LevelInfo)); err != nil {
		return fmt.Errorf("failed to register print: %w", err)
	}

	console := c.vm.NewObject()
	methods := []struct {
		name  string
		level slog.Level
	}{
		{"log", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"debug", slog.LevelDebug},
	}
	for _, m := range methods {
		if err := console.Set(m.name, c.consoleFunc(m.level)); err != nil {
			return fmt.Errorf("failed to register console.%s: %w", m.name, err)
		}
	}
	if err := c.vm.Set("console", console); err != nil {
		return fmt.Errorf("failed to register console: %w", err)
	}
	return nil
}

func (c *gojaContext) consoleFunc(level slog.Level) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		c.logger.Log(context.Background(), level, strings.Join(parts, " "))
		return goja.Undefined()
	}
}

// Run executes JavaScript code, discarding the completion value.
func (c *gojaContext) Run(name, source string) error {
	return c.env.read(func() error {
		_, err := c.vm.RunScript(name, source)
		return err
	})
}

// Lookup reads a global binding. Top-level let/const declarations are found
// as well as properties of the global object.
func (c *gojaContext) Lookup(name string) (dynamic.Value, error) {
	var v goja.Value
	err := c.env.read(func() error {
		v = c.vm.Get(name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrBindingNotFound, name)
	}
	return c.env.wrap(v), nil
}

// Interrupt stops the currently running script. Every later read from the
// context, including values already handed out, fails with the interrupt.
// Safe to call from another goroutine (e.g., for timeout enforcement).
func (c *gojaContext) Interrupt(reason string) {
	c.env.interrupt.CompareAndSwap(nil, &reason)
	c.vm.Interrupt(reason)
}

// guard runs fn and turns a panic raised inside the engine (a JS exception
// thrown through a Go call, an interrupt, a Go panic) into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch x := r.(type) {
			case error:
				err = x
			default:
				err = fmt.Errorf("%v", x)
			}
		}
	}()
	return fn()
}

// scriptError converts Goja exceptions to regular errors with clean messages.
func scriptError(err error) error {
	if err == nil {
		return nil
	}

	// Interrupts are classified before generic exceptions.
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return &ScriptError{
			Message: fmt.Sprintf("interrupted: %v", interrupted.Value()),
			Err:     dynamic.ErrInterrupted,
		}
	}

	var jsErr *goja.Exception
	if errors.As(err, &jsErr) {
		// String() includes stack trace info; Value().Export() would
		// return map[] for Error objects.
		return &ScriptError{Message: trimRepeatedClass(strings.TrimSpace(jsErr.String()))}
	}

	return err
}

// trimRepeatedClass collapses "SyntaxError: SyntaxError: ..." into a single
// prefix. Compile errors arrive as an Error whose message already names its
// class.
func trimRepeatedClass(msg string) string {
	class, rest, ok := strings.Cut(msg, ": ")
	if !ok || class == "" || strings.ContainsAny(class, " \n") {
		return msg
	}
	if strings.HasPrefix(rest, class+": ") {
		return rest
	}
	return msg
}
