// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package command

import (
	"reflect"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantArgs []string
	}{
		{"", "", nil},
		{"   ", "", nil},
		{"help", "help", []string{}},
		{"binding  result", "binding", []string{"result"}},
		{`greet "Ada Lovelace"`, "greet", []string{"Ada Lovelace"}},
		{`run "my script.js" out`, "run", []string{"my script.js", "out"}},
		{`greet ""`, "greet", []string{""}},
		{"strict\ton", "strict", []string{"on"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			name, args := ParseLine(tt.input)
			if name != tt.wantName {
				t.Errorf("ParseLine() name = %q, want %q", name, tt.wantName)
			}
			if len(args) == 0 && len(tt.wantArgs) == 0 {
				return
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("ParseLine() args = %q, want %q", args, tt.wantArgs)
			}
		})
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		input, wantName, wantRest string
	}{
		{"js", "js", ""},
		{"  js   var x = 1;  ", "js", "var x = 1;"},
		{`js var s = "a  b";`, "js", `var s = "a  b";`},
		{"eval\tx var x;", "eval", "x var x;"},
	}
	for _, tt := range tests {
		name, rest := SplitCommand(tt.input)
		if name != tt.wantName || rest != tt.wantRest {
			t.Errorf("SplitCommand(%q) = %q, %q, want %q, %q", tt.input, name, rest, tt.wantName, tt.wantRest)
		}
	}
}

func TestHandler_Execute(t *testing.T) {
	executed := false
	handler := NewInternalHandler(func(args []string, ctx *Context) error {
		executed = true
		if len(args) != 2 || args[0] != "arg1" {
			t.Errorf("Execute() args = %v, want [arg1 arg2]", args)
		}
		if ctx.RawArgs != "arg1 arg2" {
			t.Errorf("Execute() RawArgs = %q", ctx.RawArgs)
		}
		return nil
	})

	if err := handler.Execute([]string{"arg1", "arg2"}, &Context{RawArgs: "arg1 arg2"}); err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if !executed {
		t.Error("Execute() should have been called")
	}
}
