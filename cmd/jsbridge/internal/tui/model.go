// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package tui renders watch mode: the latest envelope for a script that is
// re-evaluated whenever it changes.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aplane-algo/jsbridge/internal/results"
	"github.com/aplane-algo/jsbridge/internal/value"
)

// EvalFunc evaluates the watched script once.
type EvalFunc func() results.Result[value.Value]

// FileChangedMsg tells the model the watched file changed.
type FileChangedMsg struct{}

// ResultMsg carries the outcome of one evaluation.
type ResultMsg struct {
	Result  results.Result[value.Value]
	At      time.Time
	Elapsed time.Duration
}

// Model is the watch-mode application model
type Model struct {
	path    string
	binding string
	eval    EvalFunc

	// running is set while an evaluation is in flight; pending records a
	// change that arrived meanwhile so it is evaluated afterwards.
	running bool
	pending bool

	runs    int
	last    *ResultMsg
	showRaw bool

	viewport viewport.Model
	ready    bool
	width    int
	height   int
	quitting bool
}

// NewModel creates a model for path evaluated by eval.
func NewModel(path, binding string, eval EvalFunc) Model {
	return Model{
		path:    path,
		binding: binding,
		eval:    eval,
		running: true,
	}
}

// Init starts the first evaluation.
func (m Model) Init() tea.Cmd {
	return m.evalCmd()
}

func (m *Model) startEval() tea.Cmd {
	m.running = true
	m.pending = false
	return m.evalCmd()
}

func (m Model) evalCmd() tea.Cmd {
	eval := m.eval
	return func() tea.Msg {
		start := time.Now()
		r := eval()
		return ResultMsg{Result: r, At: time.Now(), Elapsed: time.Since(start)}
	}
}

// Runs returns the number of completed evaluations.
func (m Model) Runs() int {
	return m.runs
}

// Last returns the most recent evaluation, if any.
func (m Model) Last() (ResultMsg, bool) {
	if m.last == nil {
		return ResultMsg{}, false
	}
	return *m.last, true
}
