package mcp

import "encoding/json"

// ParseRequestBytes parses a JSON-RPC request from bytes.
func ParseRequestBytes(data []byte) (*JSONRPCRequest, *JSONRPCError) {
	var req JSONRPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, ParseError(err.Error())
	}

	if err := ValidateRequest(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ValidateRequest validates a JSON-RPC request.
func ValidateRequest(req *JSONRPCRequest) *JSONRPCError {
	if req.JSONRPC != "2.0" {
		return InvalidRequestError(`jsonrpc must be "2.0"`)
	}
	if req.Method == "" {
		return InvalidRequestError("method is required")
	}
	return nil
}

// SuccessResponse creates a successful JSON-RPC response.
func SuccessResponse(id any, result any) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}

// ErrorResponse creates an error JSON-RPC response.
func ErrorResponse(id any, rpcErr *JSONRPCError) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   rpcErr,
	}
}

// toCallResult renders a tool envelope as an MCP tools/call result: the
// envelope serialized into a single text content block, with isError
// mirroring the envelope status.
func toCallResult(result ToolResult) *CallResult {
	raw, err := json.Marshal(result)
	if err != nil {
		raw = []byte(`{"tool":"` + result.Tool + `","status":"error","content":{},"error":"encode failure"}`)
	}
	return &CallResult{
		Content: []ContentBlock{{Type: "text", Text: string(raw)}},
		IsError: result.Status == StatusError,
	}
}
