// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package service implements the boundary operations exposed to callers
// (CLI, REPL, JSON-RPC). Every operation returns a results.Result envelope;
// failures never escape as Go errors.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aplane-algo/jsbridge/internal/results"
	"github.com/aplane-algo/jsbridge/internal/scripting"
	"github.com/aplane-algo/jsbridge/internal/value"
)

// GreetAge is the fixed age returned by Greet.
const GreetAge = 18

// Student is the payload of Greet.
type Student struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// Service exposes greet and executeScriptGetVariable.
type Service struct {
	host   *scripting.Host
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Service that evaluates scripts on host.
func New(host *scripting.Host, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		host:   host,
		logger: logger,
		now:    time.Now,
	}
}

// Host returns the script host backing the service.
func (s *Service) Host() *scripting.Host {
	return s.host
}

// WithHost returns a copy of s evaluating scripts on host.
func (s *Service) WithHost(host *scripting.Host) *Service {
	c := *s
	c.host = host
	return &c
}

// Greet always succeeds.
func (s *Service) Greet(name string) results.Result[Student] {
	s.logger.Info("greet called", "name", name, "at", s.now().Format("2006-01-02T15:04:05"))
	return results.Success(Student{
		Name: name,
		Age:  GreetAge,
	})
}

// ExecuteScriptGetVariable runs source in a fresh engine and returns the
// canonical value of the global named binding.
func (s *Service) ExecuteScriptGetVariable(ctx context.Context, source, binding string) results.Result[value.Value] {
	v, err := s.host.Execute(ctx, source, binding)
	if err != nil {
		s.logger.Debug("script evaluation failed",
			"binding", binding,
			"stage", string(scripting.StageOf(err)),
			"error", err)
		return results.Failure[value.Value](err.Error())
	}
	return results.Success(v)
}
