// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package jsonrpc

// Methods served by Server
const (
	MethodGreet                    = "greet"
	MethodExecuteScriptGetVariable = "executeScriptGetVariable"
	MethodGetInfo                  = "getInfo"
	MethodShutdown                 = "shutdown"

	// MethodExecuteJSGetVariable is the snake_case alias of
	// MethodExecuteScriptGetVariable.
	MethodExecuteJSGetVariable = "execute_js_get_variable"
)

// GreetParams sent with greet
type GreetParams struct {
	Name string `json:"name"`
}

// ExecuteParams sent with executeScriptGetVariable
type ExecuteParams struct {
	JSCode       string `json:"jsCode"`
	VariableName string `json:"variableName"`
}

// Limits reports the conversion limits applied by the server.
type Limits struct {
	MaxDepth      int    `json:"maxDepth"`
	MaxNodes      int    `json:"maxNodes"`
	Strict        bool   `json:"strict"`
	Timeout       string `json:"timeout,omitempty"`
	MaxConcurrent int    `json:"maxConcurrent"`
}

// GetInfoResult returned from getInfo
type GetInfoResult struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	ServerID string   `json:"serverId"`
	Engine   string   `json:"engine"`
	Methods  []string `json:"methods"`
	Limits   Limits   `json:"limits"`
	Status   string   `json:"status"`
}

// ShutdownResult returned from shutdown
type ShutdownResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
