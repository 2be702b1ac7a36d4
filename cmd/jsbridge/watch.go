// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aplane-algo/jsbridge/cmd/jsbridge/internal/tui"
	"github.com/aplane-algo/jsbridge/internal/results"
	"github.com/aplane-algo/jsbridge/internal/service"
	"github.com/aplane-algo/jsbridge/internal/util"
	"github.com/aplane-algo/jsbridge/internal/value"
	"github.com/aplane-algo/jsbridge/internal/watch"
)

// runWatch evaluates the watched file on start and after every change. On
// a terminal the latest result is shown in a TUI; otherwise each result is
// printed as a JSON line.
func runWatch(ctx context.Context, svc *service.Service, config util.Config, opts options) int {
	w, err := watch.New(opts.watch, watch.Options{
		Debounce: config.WatchDebounce,
		Logger:   util.Logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}

	eval := func() results.Result[value.Value] {
		source, err := readSource(w.Path())
		if err != nil {
			return results.Failure[value.Value](fmt.Sprintf("failed to read script: %v", err))
		}
		return svc.ExecuteScriptGetVariable(ctx, source, config.DefaultBinding)
	}

	if util.IsTerminal(os.Stdout) && util.IsTerminal(os.Stdin) && !opts.jsonOut {
		return watchTUI(ctx, w, eval, config.DefaultBinding)
	}
	return watchLines(ctx, w, eval, os.Stdout, opts.digest)
}

func watchTUI(ctx context.Context, w *watch.Watcher, eval tui.EvalFunc, binding string) int {
	p := tea.NewProgram(tui.NewModel(w.Path(), binding, eval),
		tea.WithAltScreen(),
		tea.WithContext(ctx))

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		_ = w.Run(watchCtx, func() { p.Send(tui.FileChangedMsg{}) })
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func watchLines(ctx context.Context, w *watch.Watcher, eval tui.EvalFunc, out io.Writer, digest bool) int {
	emit := func() {
		if err := writeJSONResult(out, eval(), digest); err != nil {
			util.Logger.Error("failed to write result", "error", err)
		}
	}

	emit()
	if err := w.Run(ctx, emit); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}
	return exitOK
}
