// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// headerHeight and footerHeight are the lines View draws around the
// viewport.
const (
	headerHeight = 4
	footerHeight = 2
)

// Update handles incoming messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h := msg.Height - headerHeight - footerHeight
		if h < 1 {
			h = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = h
		}
		m.viewport.SetContent(m.renderResult())
		return m, nil

	case FileChangedMsg:
		if m.running {
			m.pending = true
			return m, nil
		}
		return m, m.startEval()

	case ResultMsg:
		m.running = false
		m.runs++
		m.last = &msg
		if m.ready {
			m.viewport.SetContent(m.renderResult())
			m.viewport.GotoTop()
		}
		if m.pending {
			return m, m.startEval()
		}
		return m, nil
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "r":
		if m.running {
			m.pending = true
			return m, nil
		}
		return m, m.startEval()

	case "j":
		m.showRaw = !m.showRaw
		if m.ready {
			m.viewport.SetContent(m.renderResult())
		}
		return m, nil
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}
