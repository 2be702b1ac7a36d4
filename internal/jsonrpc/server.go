// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package jsonrpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aplane-algo/jsbridge/internal/service"
	"github.com/aplane-algo/jsbridge/internal/version"
)

// MaxRequestSize bounds a single request line. Scripts travel inline, so
// this is well above the 64KB scanner default.
const MaxRequestSize = 16 * 1024 * 1024

// DefaultMaxConcurrent is used when ServerOptions.MaxConcurrent is not set.
const DefaultMaxConcurrent = 8

// ServerOptions configures a Server.
type ServerOptions struct {
	// MaxConcurrent bounds the requests evaluated in parallel.
	MaxConcurrent int
	Logger        *slog.Logger
}

// Server answers JSON-RPC requests read one per line. Requests are handled
// concurrently; each response is written as a single line.
type Server struct {
	svc           *service.Service
	logger        *slog.Logger
	id            string
	maxConcurrent int

	writeMu sync.Mutex
}

// NewServer creates a server backed by svc.
func NewServer(svc *service.Service, opts ServerOptions) *Server {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	id := uuid.NewString()
	return &Server{
		svc:           svc,
		logger:        logger.With("server", id),
		id:            id,
		maxConcurrent: opts.MaxConcurrent,
	}
}

// ID returns the server instance id reported by getInfo.
func (s *Server) ID() string {
	return s.id
}

// Serve reads requests from r and writes responses to w until r is
// exhausted, a shutdown request arrives, or ctx is done. In-flight requests
// finish before Serve returns; cancelling ctx interrupts their scripts.
// A clean end of input or a shutdown returns nil.
//
// Requests are read on a separate goroutine. When Serve returns before r is
// exhausted, r is closed if it is an io.Closer so that goroutine ends;
// otherwise it stays blocked in Read until r yields a line or EOF.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if c, ok := r.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), MaxRequestSize)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
		close(lines)
	}()

	sem := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup
	defer wg.Wait()

	s.logger.Info("json-rpc server started", "max_concurrent", s.maxConcurrent)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("failed to read request: %w", err)
				}
				s.logger.Info("json-rpc input closed")
				return nil
			}

			req, errResp := decodeRequest(line)
			if errResp != nil {
				s.write(w, errResp)
				continue
			}
			if req == nil {
				continue
			}

			if req.Method == MethodShutdown {
				wg.Wait()
				s.logger.Info("json-rpc server shutting down")
				if !req.IsNotification() {
					s.reply(w, req, ShutdownResult{Success: true, Message: "jsbridge shutdown"})
				}
				return nil
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			wg.Add(1)
			go func(req *Request) {
				defer wg.Done()
				defer func() { <-sem }()
				resp := s.handle(ctx, req)
				if !req.IsNotification() {
					s.write(w, resp)
				}
			}(req)
		}
	}
}

// decodeRequest parses one line. A nil request with a nil response means
// the line was blank.
func decodeRequest(line []byte) (*Request, *Response) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}
	if line[0] == '[' {
		return nil, NewError(nil, InvalidRequest, "Invalid Request", "batch requests are not supported")
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, NewError(nil, ParseError, "Parse error", err.Error())
	}
	if err := req.Validate(); err != nil {
		var id interface{}
		switch req.ID.(type) {
		case float64, string:
			id = req.ID
		}
		return nil, NewError(id, InvalidRequest, "Invalid Request", err.Error())
	}
	return &req, nil
}

func (s *Server) handle(ctx context.Context, req *Request) *Response {
	start := time.Now()
	result, rpcErr := s.dispatch(ctx, req)
	s.logger.Debug("json-rpc request",
		"method", req.Method,
		"id", req.ID,
		"elapsed", time.Since(start),
		"rpc_error", rpcErr != nil)

	if rpcErr != nil {
		return &Response{Jsonrpc: Version, Error: rpcErr, ID: req.ID}
	}
	resp, err := NewResult(req.ID, result)
	if err != nil {
		return NewError(req.ID, InternalError, "Internal error", err.Error())
	}
	return resp
}

func (s *Server) dispatch(ctx context.Context, req *Request) (result interface{}, rpcErr *Error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("json-rpc handler panicked", "method", req.Method, "panic", r)
			result = nil
			rpcErr = &Error{Code: InternalError, Message: "Internal error", Data: fmt.Sprint(r)}
		}
	}()

	switch req.Method {
	case MethodGreet:
		var params GreetParams
		if err := req.ParseParams(&params); err != nil {
			return nil, &Error{Code: InvalidParams, Message: "Invalid params", Data: err.Error()}
		}
		return s.svc.Greet(params.Name), nil

	case MethodExecuteScriptGetVariable, MethodExecuteJSGetVariable:
		var params ExecuteParams
		if err := req.ParseParams(&params); err != nil {
			return nil, &Error{Code: InvalidParams, Message: "Invalid params", Data: err.Error()}
		}
		return s.svc.ExecuteScriptGetVariable(ctx, params.JSCode, params.VariableName), nil

	case MethodGetInfo:
		return s.info(), nil

	default:
		return nil, &Error{Code: MethodNotFound, Message: "Method not found", Data: req.Method}
	}
}

func (s *Server) info() GetInfoResult {
	opts := s.svc.Host().Options()
	limits := Limits{
		MaxDepth:      opts.Conversion.MaxDepth,
		MaxNodes:      opts.Conversion.MaxNodes,
		Strict:        opts.Conversion.Strict,
		MaxConcurrent: s.maxConcurrent,
	}
	if opts.Timeout > 0 {
		limits.Timeout = opts.Timeout.String()
	}
	return GetInfoResult{
		Name:     "jsbridge",
		Version:  version.Version,
		ServerID: s.id,
		Engine:   "goja",
		Methods: []string{
			MethodGreet,
			MethodExecuteScriptGetVariable,
			MethodExecuteJSGetVariable,
			MethodGetInfo,
			MethodShutdown,
		},
		Limits: limits,
		Status: "ready",
	}
}

func (s *Server) reply(w io.Writer, req *Request, result interface{}) {
	resp, err := NewResult(req.ID, result)
	if err != nil {
		resp = NewError(req.ID, InternalError, "Internal error", err.Error())
	}
	s.write(w, resp)
}

// write sends resp as one line. Writes are serialized so concurrent
// responses never interleave.
func (s *Server) write(w io.Writer, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	data = append(data, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := w.Write(data); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}
