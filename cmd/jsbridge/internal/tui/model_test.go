// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aplane-algo/jsbridge/internal/results"
	"github.com/aplane-algo/jsbridge/internal/value"
)

func counterEval(calls *int) EvalFunc {
	return func() results.Result[value.Value] {
		*calls++
		return results.Success(value.Int(int64(*calls)))
	}
}

// run executes cmd and feeds its message back into m.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(Model)
}

func TestModelInitialEvaluation(t *testing.T) {
	calls := 0
	m := NewModel("script.js", "x", counterEval(&calls))

	m = run(t, m, m.Init())
	if m.Runs() != 1 || calls != 1 {
		t.Fatalf("Runs() = %d, calls = %d, want 1", m.Runs(), calls)
	}
	last, ok := m.Last()
	if !ok || !last.Result.Success {
		t.Fatalf("Last() = %+v, %v", last, ok)
	}
	if !strings.Contains(m.View(), "ok") {
		t.Errorf("View() missing status:\n%s", m.View())
	}
}

func TestModelCoalescesChangesWhileRunning(t *testing.T) {
	calls := 0
	m := NewModel("script.js", "x", counterEval(&calls))
	first := m.Init()

	// Two changes arrive while the first evaluation is in flight
	next, cmd := m.Update(FileChangedMsg{})
	m = next.(Model)
	if cmd != nil {
		t.Fatal("change during evaluation started a second evaluation")
	}
	next, _ = m.Update(FileChangedMsg{})
	m = next.(Model)

	next, rerun := m.Update(first())
	m = next.(Model)
	if rerun == nil {
		t.Fatal("pending change was not evaluated after the result")
	}
	m = run(t, m, rerun)

	if m.Runs() != 2 || calls != 2 {
		t.Errorf("Runs() = %d, calls = %d, want 2", m.Runs(), calls)
	}
}

func TestModelKeys(t *testing.T) {
	calls := 0
	m := NewModel("script.js", "x", counterEval(&calls))
	m = run(t, m, m.Init())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(Model)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = run(t, next.(Model), cmd)
	if m.Runs() != 2 {
		t.Errorf("Runs() after r = %d, want 2", m.Runs())
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	m = next.(Model)
	if !strings.Contains(m.View(), `"success":true`) {
		t.Errorf("raw view missing envelope:\n%s", m.View())
	}

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q did not return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
	if next.(Model).View() != "Goodbye!\n" {
		t.Error("View() after quit should say goodbye")
	}
}

func TestModelFailure(t *testing.T) {
	m := NewModel("script.js", "x", func() results.Result[value.Value] {
		return results.Failure[value.Value](`binding lookup failed for "x": not found`)
	})
	m = run(t, m, m.Init())
	view := m.View()
	if !strings.Contains(view, "error") || !strings.Contains(view, "binding lookup failed") {
		t.Errorf("View() = %s", view)
	}
}
