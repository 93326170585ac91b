// Package mcp adapts the mock engine's operation surface to the Model
// Context Protocol: a static tool catalog dispatched over JSON-RPC 2.0.
package mcp

import (
	"context"
	"encoding/json"
)

// Server dispatches MCP protocol methods onto an Adapter.
type Server struct {
	adapter *Adapter
	name    string
}

// NewServer creates an MCP server over the given adapter.
func NewServer(adapter *Adapter) *Server {
	return &Server{
		adapter: adapter,
		name:    "tmfmockd",
	}
}

// Adapter returns the underlying tool adapter.
func (s *Server) Adapter() *Adapter {
	return s.adapter
}

// dispatch handles one JSON-RPC method call.
func (s *Server) dispatch(ctx context.Context, req *JSONRPCRequest) (any, *JSONRPCError) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)

	case "notifications/initialized", "initialized":
		return nil, nil

	case "ping":
		return map[string]any{}, nil

	case "tools/list":
		return ToolsListResult{Tools: s.adapter.Tools()}, nil

	case "tools/call":
		return s.handleToolCall(ctx, req)

	default:
		return nil, MethodNotFoundError(req.Method)
	}
}

func (s *Server) handleInitialize(req *JSONRPCRequest) (any, *JSONRPCError) {
	var params InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, InvalidParamsError(err.Error())
		}
	}

	// Echo the client's version when we support it, otherwise offer ours.
	version := ProtocolVersion
	if IsProtocolVersionSupported(params.ProtocolVersion) {
		version = params.ProtocolVersion
	}

	return InitializeResult{
		ProtocolVersion: version,
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{},
		},
		ServerInfo: ServerInfo{
			Name:    s.name,
			Version: ServerVersion,
		},
	}, nil
}

func (s *Server) handleToolCall(ctx context.Context, req *JSONRPCRequest) (any, *JSONRPCError) {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, InvalidParamsError(err.Error())
	}
	if params.Name == "" {
		return nil, InvalidParamsError("tool name is required")
	}

	result := s.adapter.Invoke(ctx, params.Name, params.Arguments)
	return toCallResult(result), nil
}
