// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package command

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// MockHandler implements Handler interface for testing
type MockHandler struct {
	executeFunc func(args []string, ctx *Context) error
}

func (h *MockHandler) Execute(args []string, ctx *Context) error {
	if h.executeFunc != nil {
		return h.executeFunc(args, ctx)
	}
	return nil
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	err := r.Register(&Command{
		Name:     "eval",
		Aliases:  []string{"e", "ev"},
		Category: CategoryScript,
		Handler:  &MockHandler{},
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name    string
		lookup  string
		wantOK  bool
		wantCmd string
	}{
		{"by name", "eval", true, "eval"},
		{"by alias e", "e", true, "eval"},
		{"by alias ev", "ev", true, "eval"},
		{"not found", "js", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Lookup(tt.lookup)
			if ok != tt.wantOK {
				t.Errorf("Lookup() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Name != tt.wantCmd {
				t.Errorf("Lookup() name = %v, want %v", got.Name, tt.wantCmd)
			}
		})
	}
}

func TestRegistry_RegisterConflicts(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&Command{Name: "eval", Aliases: []string{"e"}, Handler: &MockHandler{}})

	if err := r.Register(&Command{Name: "eval", Handler: &MockHandler{}}); err == nil {
		t.Error("Register() expected error for duplicate command name")
	}
	if err := r.Register(&Command{Name: "exit", Aliases: []string{"e"}, Handler: &MockHandler{}}); err == nil {
		t.Error("Register() expected error for conflicting alias")
	}

	// A rejected command leaves nothing behind
	if _, ok := r.Lookup("exit"); ok {
		t.Error("Lookup(exit) found a command whose alias was rejected")
	}
	if len(r.All()) != 1 {
		t.Errorf("All() count = %v, want 1", len(r.All()))
	}
}

func TestRegistry_ByCategoryAndNames(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&Command{Name: "run", Category: CategoryScript, Handler: &MockHandler{}})
	_ = r.Register(&Command{Name: "js", Category: CategoryScript, Handler: &MockHandler{}})
	_ = r.Register(&Command{Name: "help", Aliases: []string{"?"}, Category: CategoryInfo, Handler: &MockHandler{}})

	categories := r.ByCategory()
	script := categories[CategoryScript]
	if len(script) != 2 || script[0].Name != "js" || script[1].Name != "run" {
		t.Errorf("ByCategory() script commands not sorted: %v", script)
	}

	want := []string{"?", "help", "js", "run"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestRegistry_Execute(t *testing.T) {
	r := NewRegistry()
	var gotArgs []string
	var gotRaw string
	_ = r.Register(&Command{
		Name: "eval",
		Handler: NewInternalHandler(func(args []string, ctx *Context) error {
			gotArgs = args
			gotRaw = ctx.RawArgs
			return nil
		}),
	})
	failure := errors.New("boom")
	_ = r.Register(&Command{
		Name: "fail",
		Handler: NewInternalHandler(func([]string, *Context) error {
			return failure
		}),
	})

	ctx := &Context{RawArgs: "stale"}
	if err := r.Execute(`  eval x  var x = "a  b";`, ctx); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	wantArgs := []string{"x", "var", "x", "=", "a  b;"}
	if !reflect.DeepEqual(gotArgs, wantArgs) {
		t.Errorf("args = %q, want %q", gotArgs, wantArgs)
	}
	if gotRaw != `x  var x = "a  b";` {
		t.Errorf("RawArgs = %q", gotRaw)
	}
	if ctx.RawArgs != "stale" {
		t.Error("Execute() modified the caller's context")
	}

	if err := r.Execute("fail", ctx); !errors.Is(err, failure) {
		t.Errorf("Execute(fail) error = %v, want %v", err, failure)
	}
	if err := r.Execute("nope", ctx); err == nil || !strings.Contains(err.Error(), `"nope"`) {
		t.Errorf("Execute(nope) error = %v, want unknown command", err)
	}
	if err := r.Execute("   ", ctx); err != nil {
		t.Errorf("Execute(blank) error = %v, want nil", err)
	}
}

func TestShowHelp(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&Command{
		Name:        "js",
		Usage:       "js <source...>",
		Description: "Evaluate source and print the default binding",
		Category:    CategoryScript,
		Handler:     &MockHandler{},
	})
	cmd := &Command{
		Name:        "quit",
		Aliases:     []string{"exit"},
		Usage:       "quit",
		Description: "Leave the REPL",
		LongHelp:    "Ctrl-D also works.",
		Category:    CategorySession,
		Handler:     &MockHandler{},
	}
	_ = r.Register(cmd)

	var buf bytes.Buffer
	ShowHelp(&buf, r)
	out := buf.String()
	for _, want := range []string{"Script Evaluation:", "js <source...>", "Session:", "(aliases: exit)"} {
		if !strings.Contains(out, want) {
			t.Errorf("ShowHelp() output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Script Evaluation:") > strings.Index(out, "Session:") {
		t.Error("ShowHelp() categories out of order")
	}

	buf.Reset()
	ShowCommandHelp(&buf, cmd)
	out = buf.String()
	for _, want := range []string{"Command: quit", "Aliases: exit", "Details:\nCtrl-D also works."} {
		if !strings.Contains(out, want) {
			t.Errorf("ShowCommandHelp() output missing %q:\n%s", want, out)
		}
	}
}
