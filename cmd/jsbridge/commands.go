// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aplane-algo/jsbridge/internal/command"
	"github.com/aplane-algo/jsbridge/internal/results"
	"github.com/aplane-algo/jsbridge/internal/util"
	"github.com/aplane-algo/jsbridge/internal/value"
)

func (s *REPLState) initCommandRegistry() *command.Registry {
	r := command.NewRegistry()
	commands := []*command.Command{
		{
			Name:        "js",
			Usage:       "js <source...>",
			Description: "Evaluate source and print the current binding",
			LongHelp:    "The rest of the line is passed to the engine unchanged, quotes included.\nExample: js var result = {a: [1, 2]};",
			Category:    command.CategoryScript,
			Handler:     command.NewInternalHandler(s.cmdJS),
		},
		{
			Name:        "eval",
			Usage:       "eval <binding> <source...>",
			Description: "Evaluate source and print the named binding",
			LongHelp:    "Example: eval x let x = 6 * 7;",
			Category:    command.CategoryScript,
			Handler:     command.NewInternalHandler(s.cmdEval),
		},
		{
			Name:        "run",
			Usage:       "run <file> [binding]",
			Description: "Evaluate a script file",
			Category:    command.CategoryScript,
			Handler:     command.NewInternalHandler(s.cmdRun),
		},
		{
			Name:        "greet",
			Usage:       "greet <name>",
			Description: "Return a greeting record for name",
			Category:    command.CategoryScript,
			Handler:     command.NewInternalHandler(s.cmdGreet),
		},
		{
			Name:        "binding",
			Usage:       "binding [name]",
			Description: "Show or set the binding printed by js and run",
			Category:    command.CategorySession,
			Handler:     command.NewInternalHandler(s.cmdBinding),
		},
		{
			Name:        "strict",
			Usage:       "strict [on|off]",
			Description: "Show or set strict conversion",
			LongHelp:    "In strict mode a value that cannot be read (a throwing getter, for\ninstance) fails the evaluation instead of becoming null.",
			Category:    command.CategorySession,
			Handler:     command.NewInternalHandler(s.cmdStrict),
		},
		{
			Name:        "quit",
			Aliases:     []string{"exit"},
			Usage:       "quit",
			Description: "Leave the REPL",
			Category:    command.CategorySession,
			Handler: command.NewInternalHandler(func([]string, *command.Context) error {
				return errQuit
			}),
		},
		{
			Name:        "config",
			Usage:       "config",
			Description: "Show the effective configuration",
			Category:    command.CategoryInfo,
			Handler:     command.NewInternalHandler(s.cmdConfig),
		},
		{
			Name:        "help",
			Aliases:     []string{"?"},
			Usage:       "help [command]",
			Description: "List commands or describe one",
			Category:    command.CategoryInfo,
			Handler:     command.NewInternalHandler(s.cmdHelp),
		},
	}
	for _, cmd := range commands {
		if err := r.Register(cmd); err != nil {
			panic(err) // static table
		}
	}
	return r
}

func (s *REPLState) printResult(ctx *command.Context, r results.Result[value.Value]) {
	_, _ = fmt.Fprintln(ctx.Out, util.FormatResult(s.styles, r, false))
}

func (s *REPLState) cmdJS(_ []string, ctx *command.Context) error {
	if ctx.RawArgs == "" {
		return fmt.Errorf("usage: js <source...>")
	}
	s.printResult(ctx, s.evaluate(ctx.RawArgs, s.binding))
	return nil
}

func (s *REPLState) cmdEval(_ []string, ctx *command.Context) error {
	binding, source := command.SplitCommand(ctx.RawArgs)
	if binding == "" || source == "" {
		return fmt.Errorf("usage: eval <binding> <source...>")
	}
	s.printResult(ctx, s.evaluate(source, binding))
	return nil
}

func (s *REPLState) cmdRun(args []string, ctx *command.Context) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: run <file> [binding]")
	}
	binding := s.binding
	if len(args) == 2 {
		binding = args[1]
	}
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	s.printResult(ctx, s.evaluate(string(content), binding))
	return nil
}

func (s *REPLState) cmdGreet(args []string, ctx *command.Context) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: greet <name>")
	}
	r := s.svc.Greet(args[0])
	_, _ = fmt.Fprintf(ctx.Out, "%s %s, age %d\n",
		s.styles.Success.Render("ok"), r.Data.Name, r.Data.Age)
	return nil
}

func (s *REPLState) cmdBinding(args []string, ctx *command.Context) error {
	switch len(args) {
	case 0:
		_, _ = fmt.Fprintf(ctx.Out, "binding: %s\n", s.binding)
	case 1:
		s.binding = args[0]
		_, _ = fmt.Fprintf(ctx.Out, "binding set to %s\n", s.binding)
	default:
		return fmt.Errorf("usage: binding [name]")
	}
	return nil
}

func (s *REPLState) cmdStrict(args []string, ctx *command.Context) error {
	if len(args) > 1 {
		return fmt.Errorf("usage: strict [on|off]")
	}
	if len(args) == 1 {
		switch strings.ToLower(args[0]) {
		case "on", "true", "1":
			s.setStrict(true)
		case "off", "false", "0":
			s.setStrict(false)
		default:
			return fmt.Errorf("usage: strict [on|off]")
		}
	}
	state := "off"
	if s.config.Strict {
		state = "on"
	}
	_, _ = fmt.Fprintf(ctx.Out, "strict: %s\n", state)
	return nil
}

func (s *REPLState) cmdConfig(_ []string, ctx *command.Context) error {
	cfg := s.config
	cfg.DefaultBinding = s.binding
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, _ = ctx.Out.Write(data)
	return nil
}

func (s *REPLState) cmdHelp(args []string, ctx *command.Context) error {
	if len(args) == 0 {
		command.ShowHelp(ctx.Out, s.CommandRegistry)
		return nil
	}
	cmd, ok := s.CommandRegistry.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	command.ShowCommandHelp(ctx.Out, cmd)
	return nil
}
