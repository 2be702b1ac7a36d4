// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"github.com/aplane-algo/jsbridge/internal/command"
	"github.com/aplane-algo/jsbridge/internal/results"
	"github.com/aplane-algo/jsbridge/internal/service"
	"github.com/aplane-algo/jsbridge/internal/util"
	"github.com/aplane-algo/jsbridge/internal/value"
)

// errQuit is returned by the quit command to end the REPL.
var errQuit = errors.New("quit")

// REPLState holds the interactive session.
type REPLState struct {
	ctx    context.Context
	svc    *service.Service
	config util.Config
	out    io.Writer
	styles util.Styles
	color  bool

	// binding is read when a command names none
	binding string

	CommandRegistry *command.Registry
}

// NewREPLState creates a session writing to out.
func NewREPLState(ctx context.Context, svc *service.Service, config util.Config, out io.Writer, color bool) *REPLState {
	s := &REPLState{
		ctx:     ctx,
		svc:     svc,
		config:  config,
		out:     out,
		styles:  util.NewStyles(util.NewRenderer(out, color)),
		color:   color,
		binding: config.DefaultBinding,
	}
	s.CommandRegistry = s.initCommandRegistry()
	return s
}

// executeLine runs one input line. It returns errQuit when the session
// should end.
func (s *REPLState) executeLine(line string) error {
	return s.CommandRegistry.Execute(line, &command.Context{
		Out:       s.out,
		REPLState: s,
	})
}

// evaluate runs source and returns the envelope for binding. Ctrl-C while
// the script runs interrupts the script, not the session.
func (s *REPLState) evaluate(source, binding string) results.Result[value.Value] {
	ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt)
	defer stop()
	return s.svc.ExecuteScriptGetVariable(ctx, source, binding)
}

// setStrict swaps the service for one whose conversion mode is strict.
func (s *REPLState) setStrict(strict bool) {
	s.config.Strict = strict
	host := s.svc.Host()
	opts := host.Options()
	opts.Conversion.Strict = strict
	s.svc = s.svc.WithHost(host.WithOptions(opts))
}
