// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aplane-algo/jsbridge/internal/results"
	"github.com/aplane-algo/jsbridge/internal/value"
)

// Styles used for human-readable result output.
type Styles struct {
	Success lipgloss.Style
	Failure lipgloss.Style
	Kind    lipgloss.Style
	Dim     lipgloss.Style
}

// NewStyles builds the output styles on r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Success: r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		Failure: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Kind:    r.NewStyle().Foreground(lipgloss.Color("62")),
		Dim:     r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// FormatResult renders an envelope for a terminal. With digest set, a
// successful value is followed by its canonical digest.
func FormatResult(st Styles, r results.Result[value.Value], digest bool) string {
	var b strings.Builder
	if !r.Success {
		b.WriteString(st.Failure.Render("error:"))
		b.WriteString(" ")
		b.WriteString(r.Message)
		return b.String()
	}

	v := value.Null()
	if r.Data != nil {
		v = *r.Data
	}
	b.WriteString(st.Success.Render("ok"))
	b.WriteString(" ")
	b.WriteString(st.Kind.Render(v.Kind().String()))
	b.WriteString("\n")
	b.WriteString(value.Indent(v, "", "  "))
	if digest {
		b.WriteString("\n")
		b.WriteString(st.Dim.Render("blake2b-256 " + value.Digest(v)))
	}
	return b.String()
}
