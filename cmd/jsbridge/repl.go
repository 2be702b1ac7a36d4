// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/aplane-algo/jsbridge/internal/service"
	"github.com/aplane-algo/jsbridge/internal/util"
)

// runLines feeds every line of in to the session until input ends or a
// quit command. Used when stdin is not a terminal.
func runLines(state *REPLState, in io.Reader) int {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	code := exitOK
	for scanner.Scan() {
		err := state.executeLine(scanner.Text())
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			_, _ = fmt.Fprintf(state.out, "Error: %v\n", err)
			code = exitFailure
		}
	}
	if err := scanner.Err(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		return exitFailure
	}
	return code
}

func startREPL(ctx context.Context, svc *service.Service, config util.Config, dataDir string) int {
	color := util.UseColor(config.Color, os.Stdout)
	state := NewREPLState(ctx, svc, config, os.Stdout, color)

	if !util.IsTerminal(os.Stdin) {
		return runLines(state, os.Stdin)
	}

	fmt.Println("jsbridge - JavaScript value bridge")
	fmt.Println("Type 'help' for available commands or 'quit' to exit")
	fmt.Println("Features: Command history (↑/↓), Tab completion, Ctrl+C interrupts a running script")

	historyFile := config.HistoryFile
	if historyFile == "" && dataDir != "" {
		historyFile = filepath.Join(dataDir, ".jsbridge_history")
	}
	if historyFile != "" {
		// Best-effort: history is disabled if the directory can't be created
		_ = os.MkdirAll(filepath.Dir(historyFile), 0700)
	}

	rlConfig := &readline.Config{
		Prompt:            state.prompt(),
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		AutoComplete:      state.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	}

	rl, err := readline.NewEx(rlConfig)
	if err != nil {
		fmt.Printf("Failed to create readline instance, falling back to basic input: %v\n", err)
		return runLines(state, os.Stdin)
	}
	defer func() {
		_ = rl.Close() // Best-effort close, errors during shutdown not critical
	}()

	for {
		rl.SetPrompt(state.prompt())

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					fmt.Println("Use 'quit' or 'exit' to exit")
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Println("\nGoodbye!")
				break
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		err = state.executeLine(line)
		if errors.Is(err, errQuit) {
			fmt.Println("Goodbye!")
			break
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
	return exitOK
}

// prompt shows the current binding and strict flag.
func (s *REPLState) prompt() string {
	flags := ""
	if s.config.Strict {
		flags = " strict"
	}
	p := fmt.Sprintf("jsbridge[%s%s]>", s.binding, flags)
	if s.color {
		p = s.styles.Success.Render(p)
	}
	return p + " "
}

// completer completes command names and, for run, script files in the
// current directory.
func (s *REPLState) completer() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range s.CommandRegistry.Names() {
		switch name {
		case "run":
			items = append(items, readline.PcItem(name, readline.PcItemDynamic(listScripts)))
		case "strict":
			items = append(items, readline.PcItem(name, readline.PcItem("on"), readline.PcItem("off")))
		case "help", "?":
			var sub []readline.PrefixCompleterInterface
			for _, cmd := range s.CommandRegistry.All() {
				sub = append(sub, readline.PcItem(cmd.Name))
			}
			items = append(items, readline.PcItem(name, sub...))
		default:
			items = append(items, readline.PcItem(name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

// listScripts returns .js files in the current directory.
func listScripts(string) []string {
	entries, err := os.ReadDir(".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".js") {
			names = append(names, e.Name())
		}
	}
	return names
}
