// Package mcp provides types for the JSON-RPC 2.0 stdio transport used by the
// EWS analyzer MCP server, and a client that owns the server process and
// exchanges newline-delimited messages with it over stdin/stdout.
package mcp

import "encoding/json"

// Version is the JSON-RPC protocol version stamped on every message.
const Version = "2.0"

// --- JSON-RPC 2.0 wire types ---

// Request is an outbound JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response is an inbound JSON-RPC 2.0 response. Result and Error are
// mutually exclusive; Result is kept raw so callers decide how to decode it.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError is the error field in a JSON-RPC 2.0 response. It is remote
// data, not a local fault: wrappers return it as the error value so callers
// can inspect Code and Data.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *ResponseError) Error() string { return e.Message }

// --- MCP method types ---

// InitializeResult is the server's response to the initialize handshake.
type InitializeResult struct {
	ProtocolVersion string     `json:"protocolVersion,omitempty"`
	ServerInfo      ServerInfo `json:"serverInfo"`
}

// ServerInfo identifies the analyzer server.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ListToolsResult is returned by tools/list.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// Tool describes a single callable analyzer tool.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema any    `json:"inputSchema,omitempty"`
}

// CallToolParams is the tools/call envelope.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}
