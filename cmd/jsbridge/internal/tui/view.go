// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package tui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/aplane-algo/jsbridge/internal/value"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("jsbridge watch"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("%s  binding: %s", m.path, m.binding)))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")

	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(m.renderResult())
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("r: re-run • j: toggle raw envelope • ↑/↓: scroll • q: quit"))
	return b.String()
}

func (m Model) renderStatus() string {
	if m.last == nil {
		return runningStyle.Render("evaluating...")
	}

	var status string
	if m.last.Result.Success {
		status = successStyle.Render("ok")
	} else {
		status = errorStyle.Render("error")
	}
	line := fmt.Sprintf("%s  run #%d at %s (%s)",
		status, m.runs, m.last.At.Format("15:04:05"), m.last.Elapsed.Round(time.Microsecond))
	if m.running {
		line += "  " + runningStyle.Render("re-evaluating...")
	}
	return line
}

// renderResult is the viewport content for the latest result.
func (m Model) renderResult() string {
	if m.last == nil {
		return ""
	}
	r := m.last.Result

	if m.showRaw {
		data, err := json.Marshal(r)
		if err != nil {
			return errorStyle.Render(err.Error())
		}
		return string(data)
	}

	if !r.Success {
		return errorStyle.Render(r.Message)
	}
	v := value.Null()
	if r.Data != nil {
		v = *r.Data
	}
	return fmt.Sprintf("%s\n%s\n\n%s",
		subtitleStyle.Render(v.Kind().String()),
		value.Indent(v, "", "  "),
		subtitleStyle.Render("blake2b-256 "+value.Digest(v)))
}
