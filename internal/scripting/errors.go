// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package scripting

import (
	"errors"
	"fmt"
)

// Stage names a step of the execution lifecycle.
type Stage string

const (
	StageEngineCreation  Stage = "engine creation"
	StageContextCreation Stage = "context creation"
	StageExecution       Stage = "script execution"
	StageLookup          Stage = "binding lookup"
	StageConversion      Stage = "value conversion"
)

// Sentinel errors matched with errors.Is against an *Error.
var (
	ErrEngineCreation  = errors.New("engine creation failed")
	ErrContextCreation = errors.New("context creation failed")
	ErrScriptExecution = errors.New("script execution failed")
	ErrBindingLookup   = errors.New("binding lookup failed")

	// ErrBindingNotFound is the cause of a lookup for a name that is not
	// defined in the global scope.
	ErrBindingNotFound = errors.New("binding is not defined")

	// ErrContextInUse is returned when a second context is requested from a
	// runtime that only supports one.
	ErrContextInUse = errors.New("runtime already has a context")

	// ErrClosed is returned by a runtime or context used after Close.
	ErrClosed = errors.New("runtime is closed")
)

// ScriptError carries the engine's own message for a failed script.
// Err, when set, classifies the failure (dynamic.ErrInterrupted).
type ScriptError struct {
	Message string
	Err     error
}

func (e *ScriptError) Error() string {
	return e.Message
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// Error is a lifecycle failure classified by stage.
type Error struct {
	Stage   Stage
	Binding string
	Err     error
}

func (e *Error) Error() string {
	switch e.Stage {
	case StageLookup, StageConversion:
		return fmt.Sprintf("%s failed for %q: %v", e.Stage, e.Binding, e.Err)
	default:
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the stage sentinels. Conversion failures (strict mode only)
// belong to the script execution class.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrEngineCreation:
		return e.Stage == StageEngineCreation
	case ErrContextCreation:
		return e.Stage == StageContextCreation
	case ErrScriptExecution:
		return e.Stage == StageExecution || e.Stage == StageConversion
	case ErrBindingLookup:
		return e.Stage == StageLookup
	}
	return false
}

// StageOf returns the stage of a lifecycle error, or "" if err is not one.
func StageOf(err error) Stage {
	var se *Error
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
