// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aplane-algo/jsbridge/internal/jsonrpc"
	"github.com/aplane-algo/jsbridge/internal/service"
	"github.com/aplane-algo/jsbridge/internal/util"
)

// runServe answers JSON-RPC requests on stdin/stdout until input ends, a
// shutdown request arrives, or the process is signalled.
func runServe(ctx context.Context, svc *service.Service, config util.Config) int {
	srv := jsonrpc.NewServer(svc, jsonrpc.ServerOptions{
		MaxConcurrent: config.MaxConcurrent,
		Logger:        util.Logger,
	})

	err := srv.Serve(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}
	return exitOK
}
