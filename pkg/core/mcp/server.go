package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Handler executes one tool call and returns the textual result. A returned
// error becomes a textual error response; it never terminates the server.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Server serves MCP tools as JSON-RPC 2.0 over a line-delimited stream,
// normally stdin/stdout. Tool calls are dispatched concurrently; anything
// that needs exclusive access to a physical device serializes below this
// layer.
type Server struct {
	name    string
	version string
	logger  *zap.Logger

	mu       sync.Mutex
	tools    []Tool
	handlers map[string]Handler

	writeMu sync.Mutex
	out     io.Writer

	// calls maps in-flight request ids to their cancel functions so
	// notifications/cancelled and a closing transport can abort them.
	callMu sync.Mutex
	calls  map[string]context.CancelFunc

	wg sync.WaitGroup
}

// NewServer creates an MCP server with the given implementation name and
// version, as reported in the initialize response.
func NewServer(name, version string, logger *zap.Logger) *Server {
	return &Server{
		name:     name,
		version:  version,
		logger:   logger,
		handlers: make(map[string]Handler),
		calls:    make(map[string]context.CancelFunc),
	}
}

// Register adds a tool and its handler. Registration must complete before
// Serve is called.
func (s *Server) Register(tool Tool, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = append(s.tools, tool)
	s.handlers[tool.Name] = handler
}

// Serve reads messages from r and writes responses to w until r is
// exhausted or ctx is canceled. When the transport ends, in-flight tool
// calls are canceled so they release any device they hold, then waited
// for so no response is lost on a clean shutdown.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.writeMu.Lock()
	s.out = w
	s.writeMu.Unlock()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			s.cancelCalls()
			s.wg.Wait()
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			s.logger.Warn("discarding unparsable message", zap.Error(err))
			s.respondError(nil, codeParseError, "parse error")
			continue
		}
		if msg.JSONRPC != "2.0" || msg.Method == "" {
			s.respondError(msg.ID, codeInvalidRequest, "invalid request")
			continue
		}

		s.dispatch(ctx, &msg)
	}

	s.cancelCalls()
	s.wg.Wait()
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("transport read failed: %w", err)
	}
	return nil
}

func (s *Server) dispatch(ctx context.Context, msg *Message) {
	switch msg.Method {
	case "initialize":
		s.respond(msg.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    s.name,
				"version": s.version,
			},
		})

	case "notifications/initialized":
		// Notifications carry no id and get no response.

	case "notifications/cancelled":
		var p cancelParams
		if err := json.Unmarshal(msg.Params, &p); err == nil && len(p.RequestID) > 0 {
			s.cancelCall(string(p.RequestID))
		}

	case "ping":
		s.respond(msg.ID, map[string]any{})

	case "tools/list":
		s.mu.Lock()
		tools := s.tools
		s.mu.Unlock()
		s.respond(msg.ID, map[string]any{"tools": tools})

	case "resources/list":
		s.respond(msg.ID, map[string]any{"resources": []any{}})

	case "tools/call":
		var params callParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			s.respondError(msg.ID, codeInvalidParams, "invalid tools/call params")
			return
		}
		// Each call runs on its own goroutine so a long capture does not
		// stall unrelated requests, and with its own context so the
		// caller can cancel it mid-flight.
		callCtx, cancel := context.WithCancel(ctx)
		key := string(msg.ID)
		s.trackCall(key, cancel)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.releaseCall(key)
			s.runTool(callCtx, msg.ID, params)
		}()

	default:
		if msg.ID != nil {
			s.respondError(msg.ID, codeMethodNotFound, fmt.Sprintf("unknown method: %s", msg.Method))
		}
	}
}

// runTool executes one handler. Errors and panics become textual error
// results; a single failed call must leave the process able to serve the
// next one.
func (s *Server) runTool(ctx context.Context, id json.RawMessage, params callParams) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tool handler panicked", zap.String("tool", params.Name), zap.Any("panic", r))
			s.respondToolError(id, fmt.Sprintf("internal error in tool %s: %v", params.Name, r))
		}
	}()

	s.mu.Lock()
	handler, ok := s.handlers[params.Name]
	s.mu.Unlock()
	if !ok {
		s.respondToolError(id, fmt.Sprintf("unknown tool: %s", params.Name))
		return
	}

	args := params.Arguments
	if args == nil {
		args = map[string]any{}
	}

	text, err := handler(ctx, args)
	if err != nil {
		s.logger.Warn("tool call failed", zap.String("tool", params.Name), zap.Error(err))
		s.respondToolError(id, fmt.Sprintf("Error: %v", err))
		return
	}

	s.respond(id, callResult{
		Content: []textContent{{Type: "text", Text: text}},
	})
}

func (s *Server) trackCall(id string, cancel context.CancelFunc) {
	s.callMu.Lock()
	s.calls[id] = cancel
	s.callMu.Unlock()
}

// releaseCall cancels and forgets a finished call's context.
func (s *Server) releaseCall(id string) {
	s.callMu.Lock()
	cancel, ok := s.calls[id]
	delete(s.calls, id)
	s.callMu.Unlock()
	if ok {
		cancel()
	}
}

// cancelCall aborts the in-flight call with the given request id, if any.
func (s *Server) cancelCall(id string) {
	s.callMu.Lock()
	cancel, ok := s.calls[id]
	s.callMu.Unlock()
	if ok {
		cancel()
	}
}

// cancelCalls aborts every in-flight call. Used when the transport ends
// so a running capture does not hold the device past the connection.
func (s *Server) cancelCalls() {
	s.callMu.Lock()
	cancels := make([]context.CancelFunc, 0, len(s.calls))
	for _, cancel := range s.calls {
		cancels = append(cancels, cancel)
	}
	s.callMu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

func (s *Server) respond(id json.RawMessage, result any) {
	if id == nil {
		return
	}
	s.write(&Message{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) respondToolError(id json.RawMessage, text string) {
	s.respond(id, callResult{
		Content: []textContent{{Type: "text", Text: text}},
		IsError: true,
	})
}

func (s *Server) respondError(id json.RawMessage, code int, message string) {
	if id == nil {
		return
	}
	s.write(&Message{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: message}})
}

func (s *Server) write(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("failed to marshal response", zap.Error(err))
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.out == nil {
		return
	}
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		s.logger.Error("failed to write response", zap.Error(err))
	}
}
