package mcp

import "encoding/json"

// protocolVersion is the MCP revision this server negotiates.
const protocolVersion = "2024-11-05"

// Tool describes one callable tool as advertised by tools/list.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Message is an MCP JSON-RPC 2.0 message, one per line on the wire.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSON-RPC error codes used by the server.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// textContent is one entry of a tool result's content list.
type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// callResult is the result payload of tools/call.
type callResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// callParams are the parameters of tools/call.
type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// cancelParams are the parameters of notifications/cancelled. The id is
// kept raw so string and numeric request ids match byte for byte.
type cancelParams struct {
	RequestID json.RawMessage `json:"requestId"`
}

// Argument accessors. MCP arguments arrive as generic JSON, so numbers are
// float64 regardless of the schema's declared type.

// StringArg returns a string argument or the fallback when absent.
func StringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// NumberArg returns a numeric argument or the fallback when absent.
func NumberArg(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

// BoolArg returns a boolean argument or the fallback when absent.
func BoolArg(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}
