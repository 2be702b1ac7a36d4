// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aplane-algo/jsbridge/internal/results"
	"github.com/aplane-algo/jsbridge/internal/service"
	"github.com/aplane-algo/jsbridge/internal/util"
	"github.com/aplane-algo/jsbridge/internal/value"
)

// envelopeOutput is the -json rendering of an envelope, with the digest
// of the value when requested.
type envelopeOutput struct {
	results.Result[value.Value]
	Digest string `json:"digest,omitempty"`
}

// readSource reads a script from path, or stdin for "-".
func readSource(path string) (string, error) {
	var content []byte
	var err error
	if path == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// runOnce evaluates source, prints the envelope and returns the exit code.
func runOnce(ctx context.Context, svc *service.Service, config util.Config, opts options, source string) int {
	r := svc.ExecuteScriptGetVariable(ctx, source, config.DefaultBinding)
	if err := printResult(os.Stdout, r, config, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}
	if !r.Success {
		return exitFailure
	}
	return exitOK
}

// printResult writes r to w as JSON or as styled text.
func printResult(w io.Writer, r results.Result[value.Value], config util.Config, opts options) error {
	if opts.jsonOut {
		return writeJSONResult(w, r, opts.digest)
	}
	color := false
	if f, ok := w.(*os.File); ok {
		color = util.UseColor(config.Color, f)
	}
	st := util.NewStyles(util.NewRenderer(w, color))
	_, err := fmt.Fprintln(w, util.FormatResult(st, r, opts.digest))
	return err
}

// writeJSONResult writes r as one JSON line.
func writeJSONResult(w io.Writer, r results.Result[value.Value], digest bool) error {
	out := envelopeOutput{Result: r}
	if digest && r.Success && r.Data != nil {
		out.Digest = value.Digest(*r.Data)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
