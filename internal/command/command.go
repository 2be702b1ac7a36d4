// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package command provides the REPL command registry, line parsing and help
// output.
package command

import "io"

// Command represents a REPL command with metadata
type Command struct {
	Name        string   // Primary command name
	Aliases     []string // Alternative names (e.g., "?" for "help")
	Usage       string   // Usage string: "eval <binding> <source...>"
	Description string   // One-line description
	LongHelp    string   // Multi-line detailed help (optional)
	Category    string   // "Script Evaluation", "Session", etc.
	Handler     Handler  // Command execution handler
}

// Handler is the interface all command handlers must implement
type Handler interface {
	Execute(args []string, ctx *Context) error
}

// Context carries per-invocation REPL state to a handler.
type Context struct {
	// RawArgs is the input after the command name, quotes and spacing
	// preserved. Script source is taken from here rather than from args.
	RawArgs string

	// Out receives command output.
	Out io.Writer

	// REPLState is the owning REPL's state, opaque to this package.
	REPLState interface{}
}

// Category constants for organizing commands
const (
	CategoryScript  = "Script Evaluation"
	CategorySession = "Session"
	CategoryInfo    = "Information"
)

// categoryOrder fixes the order categories appear in help output.
var categoryOrder = []string{
	CategoryScript,
	CategorySession,
	CategoryInfo,
}
