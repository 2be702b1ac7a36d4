// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// jsbridge evaluates JavaScript in an embedded engine and returns the value
// of a named global binding as a JSON envelope. It runs one-shot, as an
// interactive REPL, as a JSON-RPC server on stdio, or watching a file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aplane-algo/jsbridge/internal/scripting"
	"github.com/aplane-algo/jsbridge/internal/service"
	"github.com/aplane-algo/jsbridge/internal/util"
	"github.com/aplane-algo/jsbridge/internal/version"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// options holds the parsed command line.
type options struct {
	dataDir  string
	jsFile   string
	expr     string
	binding  string
	watch    string
	serve    bool
	strict   bool
	timeout  time.Duration
	digest   bool
	jsonOut  bool
	explicit map[string]bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("jsbridge", flag.ContinueOnError)
	var opts options
	printVersion := fs.Bool("version", false, "Print version and exit")
	fs.StringVar(&opts.dataDir, "d", "", "Data directory (default: ~/.jsbridge or JSBRIDGE_DATA)")
	fs.StringVar(&opts.jsFile, "js", "", "Evaluate JavaScript file (use '-' for stdin)")
	fs.StringVar(&opts.expr, "e", "", "Evaluate JavaScript source")
	fs.StringVar(&opts.binding, "binding", "", "Global binding to return (default from config)")
	fs.StringVar(&opts.watch, "watch", "", "Re-evaluate file on every change")
	fs.BoolVar(&opts.serve, "serve", false, "Serve JSON-RPC on stdin/stdout")
	fs.BoolVar(&opts.strict, "strict", false, "Fail instead of degrading unreadable values to null")
	fs.DurationVar(&opts.timeout, "timeout", 0, "Interrupt scripts running longer than this")
	fs.BoolVar(&opts.digest, "digest", false, "Print the blake2b-256 digest of the canonical value")
	fs.BoolVar(&opts.jsonOut, "json", false, "Print the envelope as JSON")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *printVersion {
		fmt.Printf("jsbridge %s\n", version.String())
		return exitOK
	}

	opts.explicit = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.explicit[f.Name] = true })

	if err := validateModes(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	// Resolve data directory: -d flag > JSBRIDGE_DATA env var > ~/.jsbridge
	dataDir := util.GetDataDir(opts.dataDir)
	config, err := util.LoadConfig(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid configuration: %v\n", err)
		return exitFailure
	}
	applyFlags(&config, opts)
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	if err := util.InitLogger(config); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}
	util.Debug("configuration loaded", "data_dir", dataDir, "binding", config.DefaultBinding)

	hostOpts := config.HostOptions()
	host := scripting.NewHost(config.NewEngine(), hostOpts)
	svc := service.New(host, util.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case opts.serve:
		return runServe(ctx, svc, config)
	case opts.watch != "":
		return runWatch(ctx, svc, config, opts)
	case opts.expr != "":
		return runOnce(ctx, svc, config, opts, opts.expr)
	case opts.jsFile != "":
		source, err := readSource(opts.jsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read script: %v\n", err)
			return exitFailure
		}
		return runOnce(ctx, svc, config, opts, source)
	default:
		// The REPL handles Ctrl-C per evaluation
		stop()
		return startREPL(context.Background(), svc, config, dataDir)
	}
}

// validateModes rejects combinations of mutually exclusive modes.
func validateModes(opts options) error {
	modes := 0
	for _, set := range []bool{opts.serve, opts.watch != "", opts.expr != "", opts.jsFile != ""} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return fmt.Errorf("-serve, -watch, -e and -js are mutually exclusive")
	}
	return nil
}

// applyFlags lets explicit flags override config values.
func applyFlags(config *util.Config, opts options) {
	if opts.explicit["strict"] {
		config.Strict = opts.strict
	}
	if opts.explicit["timeout"] {
		config.Timeout = opts.timeout
	}
	if opts.binding != "" {
		config.DefaultBinding = opts.binding
	}
}
