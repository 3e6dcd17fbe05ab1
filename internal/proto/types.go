package proto

import "encoding/json"

// Wire format: newline-delimited JSON records. Requests carry a
// caller-supplied id; responses echo it. Callers correlate by id, never
// by response order.

// Request is one inbound record.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	ID     json.RawMessage `json:"id"`
}

// Response is one outbound record: exactly one of Result or Error is
// set.
type Response struct {
	ID     json.RawMessage `json:"id"`
	Result any             `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Error is the protocol error envelope.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Protocol error codes (JSON-RPC numbering, as the original wire format
// used).
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
)

// ProtocolVersion is advertised by the initialize handshake.
const ProtocolVersion = "2024-11-05"

// callParams is the body of a tools/call request.
type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// toolInfo is one entry of a tools/list response.
type toolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// contentBlock is the text content wrapper of a tools/call result.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// callResult is the result envelope of a tools/call response.
type callResult struct {
	Content           []contentBlock `json:"content"`
	StructuredContent any            `json:"structuredContent,omitempty"`
	IsError           bool           `json:"isError"`
}
