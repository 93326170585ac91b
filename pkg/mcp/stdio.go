package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/tmfmock/tmfmockd/pkg/logging"
)

// StdioServer runs the MCP protocol over stdin/stdout (newline-delimited
// JSON-RPC). This is the primary transport for MCP clients.
//
// Usage in a client config:
//
//	{
//	  "mcpServers": {
//	    "tmfmockd": {
//	      "command": "tmfmockd",
//	      "args": ["mcp", "--upstream", "http://localhost:4000"]
//	    }
//	  }
//	}
type StdioServer struct {
	server      *Server
	reader      io.Reader
	writer      io.Writer
	log         *slog.Logger
	initialized bool
	mu          sync.Mutex
}

// NewStdioServer creates a new stdio MCP server.
func NewStdioServer(server *Server) *StdioServer {
	return &StdioServer{
		server: server,
		reader: os.Stdin,
		writer: os.Stdout,
		log:    logging.Nop(),
	}
}

// SetLogger sets the logger. Logs must go to stderr to avoid interfering
// with the protocol stream on stdout.
func (s *StdioServer) SetLogger(log *slog.Logger) {
	if log != nil {
		s.log = log
	}
}

// SetIO overrides the default stdin/stdout for testing.
func (s *StdioServer) SetIO(reader io.Reader, writer io.Writer) {
	s.reader = reader
	s.writer = writer
}

// Run starts the stdio event loop. Blocks until EOF on stdin or an error.
func (s *StdioServer) Run(ctx context.Context) error {
	s.log.Info("MCP stdio server starting",
		"version", ServerVersion,
		"protocol", ProtocolVersion,
	)

	scanner := bufio.NewScanner(s.reader)
	// Newline-delimited JSON; allow up to 10MB per message.
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		s.log.Debug("received", "message", string(line))

		if resp := s.handleMessage(ctx, line); resp != nil {
			s.writeResponse(resp)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stdin read error: %w", err)
	}

	s.log.Info("MCP stdio server stopped (EOF)")
	return nil
}

// handleMessage processes a single JSON-RPC message. Returns nil for
// notifications, which require no response.
func (s *StdioServer) handleMessage(ctx context.Context, data []byte) *JSONRPCResponse {
	req, parseErr := ParseRequestBytes(data)
	if parseErr != nil {
		return ErrorResponse(nil, parseErr)
	}

	if req.Method == "initialize" {
		s.initialized = true
	} else if !s.initialized {
		if req.IsNotification() {
			return nil
		}
		return ErrorResponse(req.ID, NotInitializedError())
	}

	result, rpcErr := s.server.dispatch(ctx, req)

	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		return ErrorResponse(req.ID, rpcErr)
	}
	return SuccessResponse(req.ID, result)
}

// writeResponse writes a JSON-RPC response as a single line.
func (s *StdioServer) writeResponse(resp *JSONRPCResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("failed to marshal response", "error", err)
		return
	}

	s.log.Debug("sending", "message", string(data))

	data = append(data, '\n')
	if _, err := s.writer.Write(data); err != nil {
		s.log.Error("failed to write response", "error", err)
	}
}
