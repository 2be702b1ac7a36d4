// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package scripting

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aplane-algo/jsbridge/internal/bridge"
	"github.com/aplane-algo/jsbridge/internal/dynamic"
	"github.com/aplane-algo/jsbridge/internal/value"
)

// DefaultScriptName is the source name reported in engine error messages.
const DefaultScriptName = "script.js"

// State is a step of a single invocation.
type State int

const (
	StateCreated State = iota
	StateContextReady
	StateScriptExecuted
	StateBindingResolved
	StateConverted
	StateReturned
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateContextReady:
		return "context-ready"
	case StateScriptExecuted:
		return "script-executed"
	case StateBindingResolved:
		return "binding-resolved"
	case StateConverted:
		return "converted"
	case StateReturned:
		return "returned"
	default:
		return "unknown"
	}
}

// HostOptions configures a Host.
type HostOptions struct {
	// Timeout interrupts a script that runs longer, including getters run
	// while the binding is read and converted. Zero means no limit: a script
	// that never terminates blocks Execute until ctx is done.
	Timeout time.Duration

	// Conversion controls the value bridge (limits, strict mode).
	Conversion bridge.Options

	// ScriptName is reported in engine error messages.
	ScriptName string

	Logger *slog.Logger
}

// Host runs one script per call in a fresh runtime and returns the
// canonical value of a named global binding. Nothing is shared between
// calls, so a Host is safe for concurrent use.
type Host struct {
	engine Engine
	opts   HostOptions
	logger *slog.Logger
}

// NewHost creates a Host backed by engine.
func NewHost(engine Engine, opts HostOptions) *Host {
	if opts.ScriptName == "" {
		opts.ScriptName = DefaultScriptName
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Conversion.Logger == nil {
		opts.Conversion.Logger = logger
	}
	return &Host{engine: engine, opts: opts, logger: logger}
}

// Options returns the host configuration.
func (h *Host) Options() HostOptions {
	return h.opts
}

// WithOptions returns a Host sharing the engine with different options.
func (h *Host) WithOptions(opts HostOptions) *Host {
	if opts.Logger == nil {
		opts.Logger = h.logger
	}
	return NewHost(h.engine, opts)
}

// Execute runs source in a new runtime and context, resolves binding in the
// global scope and converts it. Every failure is returned as an *Error
// naming its stage; nothing is retried.
//
// Cancelling ctx, or exceeding HostOptions.Timeout, interrupts the script.
func (h *Host) Execute(ctx context.Context, source, binding string) (value.Value, error) {
	log := h.logger.With("invocation", uuid.NewString(), "binding", binding)
	start := time.Now()

	state := StateCreated
	advance := func(next State) {
		log.Debug("invocation state", "from", state, "to", next)
		state = next
	}
	fail := func(stage Stage, err error) (value.Value, error) {
		log.Debug("invocation failed", "state", state, "stage", string(stage), "error", err)
		advance(StateReturned)
		return value.Null(), &Error{Stage: stage, Binding: binding, Err: err}
	}

	rt, err := h.engine.NewRuntime()
	if err != nil {
		return fail(StageEngineCreation, err)
	}
	defer rt.Close()

	sc, err := rt.NewContext()
	if err != nil {
		return fail(StageContextCreation, err)
	}
	advance(StateContextReady)

	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return fail(StageExecution, err)
	}
	stop := interruptOnDone(ctx, sc)
	defer stop()

	if err := sc.Run(h.opts.ScriptName, source); err != nil {
		return fail(StageExecution, err)
	}
	advance(StateScriptExecuted)

	dv, err := sc.Lookup(binding)
	if err != nil {
		return fail(stageFor(StageLookup, err), err)
	}
	advance(StateBindingResolved)

	out, stats, err := h.opts.Conversion.Convert(dv)
	if err != nil {
		return fail(stageFor(StageConversion, err), err)
	}
	// Getters run during lookup and conversion; a deadline reached there
	// fails the call even if no read observed the interrupt.
	if err := ctx.Err(); err != nil {
		return fail(StageExecution, err)
	}
	advance(StateConverted)

	log.Debug("invocation complete",
		"kind", out.Kind().String(),
		"nodes", stats.Nodes,
		"degraded", stats.Degraded,
		"truncated", stats.Truncated,
		"elapsed", time.Since(start))
	advance(StateReturned)
	return out, nil
}

// stageFor reports an interrupt raised by script code running during lookup
// or conversion (getters, proxy traps) as an execution failure.
func stageFor(stage Stage, err error) Stage {
	if errors.Is(err, dynamic.ErrInterrupted) {
		return StageExecution
	}
	return stage
}

// interruptOnDone interrupts c when ctx is done. The returned func stops
// watching.
func interruptOnDone(ctx context.Context, c Context) (stop func()) {
	if ctx.Done() == nil {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.Interrupt(ctx.Err().Error())
		case <-done:
		}
	}()
	return func() { close(done) }
}
