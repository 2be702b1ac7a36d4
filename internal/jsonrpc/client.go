// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package jsonrpc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aplane-algo/jsbridge/internal/results"
	"github.com/aplane-algo/jsbridge/internal/service"
	"github.com/aplane-algo/jsbridge/internal/value"
)

// DefaultCallTimeout bounds Call.
const DefaultCallTimeout = 30 * time.Second

// ErrClientClosed is returned for calls pending when the client closes or
// the server's output ends.
var ErrClientClosed = errors.New("json-rpc client closed")

// Client handles JSON-RPC communication with a jsbridge server
type Client struct {
	writer  io.Writer
	scanner *bufio.Scanner

	// Request tracking
	requestID uint64
	pending   map[uint64]chan *Response
	closed    bool
	mu        sync.Mutex
	writeMu   sync.Mutex

	lastError error
}

// NewClient creates a new JSON-RPC client
func NewClient(reader io.Reader, writer io.Writer) *Client {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), MaxRequestSize)

	return &Client{
		writer:  writer,
		scanner: scanner,
		pending: make(map[uint64]chan *Response),
	}
}

// Call makes a JSON-RPC call and waits for the response
func (c *Client) Call(method string, params interface{}, result interface{}) error {
	return c.CallWithTimeout(method, params, result, DefaultCallTimeout)
}

// CallWithTimeout makes a JSON-RPC call with a custom timeout. An error
// response is returned as *Error.
func (c *Client) CallWithTimeout(method string, params interface{}, result interface{}, timeout time.Duration) error {
	id := atomic.AddUint64(&c.requestID, 1)
	request := NewRequest(method, params, id)

	respChan := make(chan *Response, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	c.pending[id] = respChan
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.sendRequest(request); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-respChan:
		if !ok {
			return ErrClientClosed
		}
		if resp.HasError() {
			return resp.Error
		}
		if result != nil {
			return resp.ParseResult(result)
		}
		return nil

	case <-timer.C:
		return fmt.Errorf("request timeout after %v", timeout)
	}
}

// Notify sends a notification (no response expected)
func (c *Client) Notify(method string, params interface{}) error {
	return c.sendRequest(NewRequest(method, params, nil))
}

// sendRequest writes request as a single line
func (c *Client) sendRequest(request *Request) error {
	data, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}
	return nil
}

// Start begins reading responses from the server
func (c *Client) Start() {
	go c.readLoop()
}

// readLoop reads responses until the server's output ends, then fails any
// calls still pending.
func (c *Client) readLoop() {
	defer c.Close()

	for c.scanner.Scan() {
		line := c.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var response Response
		if err := json.Unmarshal(line, &response); err != nil {
			c.setLastError(fmt.Errorf("failed to unmarshal response: %w", err))
			continue
		}

		// JSON unmarshaler converts numeric IDs to float64
		f, ok := response.ID.(float64)
		if !ok {
			if response.HasError() {
				c.setLastError(response.Error)
			}
			continue
		}
		id := uint64(f)

		c.mu.Lock()
		respChan, ok := c.pending[id]
		if ok {
			select {
			case respChan <- &response:
			default:
			}
		}
		c.mu.Unlock()
	}

	if err := c.scanner.Err(); err != nil {
		c.setLastError(fmt.Errorf("scanner error: %w", err))
	}
}

func (c *Client) setLastError(err error) {
	c.mu.Lock()
	c.lastError = err
	c.mu.Unlock()
}

// GetLastError returns the last error encountered during reading
func (c *Client) GetLastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Close fails pending calls. It doesn't close the underlying reader/writer.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

// Greet calls greet.
func (c *Client) Greet(name string) (results.Result[service.Student], error) {
	var r results.Result[service.Student]
	err := c.Call(MethodGreet, GreetParams{Name: name}, &r)
	return r, err
}

// ExecuteScriptGetVariable calls executeScriptGetVariable. A successful
// envelope always carries Data, null included.
func (c *Client) ExecuteScriptGetVariable(jsCode, variableName string) (results.Result[value.Value], error) {
	var r results.Result[value.Value]
	err := c.Call(MethodExecuteScriptGetVariable, ExecuteParams{JSCode: jsCode, VariableName: variableName}, &r)
	if err != nil {
		return r, err
	}
	if r.Success && r.Data == nil {
		null := value.Null()
		r.Data = &null
	}
	return r, nil
}

// GetInfo calls getInfo.
func (c *Client) GetInfo() (*GetInfoResult, error) {
	var info GetInfoResult
	if err := c.Call(MethodGetInfo, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Shutdown asks the server to finish in-flight requests and stop.
func (c *Client) Shutdown() error {
	var r ShutdownResult
	if err := c.Call(MethodShutdown, nil, &r); err != nil {
		return err
	}
	if !r.Success {
		return fmt.Errorf("shutdown failed: %s", r.Message)
	}
	return nil
}
