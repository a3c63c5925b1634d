package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// syncBuffer serializes writes so concurrent tool responses do not interleave
// mid-line in tests.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var lines []string
	for _, l := range strings.Split(b.buf.String(), "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func serveScript(t *testing.T, srv *Server, requests ...string) []string {
	t.Helper()
	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	out := &syncBuffer{}
	if err := srv.Serve(context.Background(), in, out); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	return out.Lines()
}

func decodeLine(t *testing.T, line string) *Message {
	t.Helper()
	var msg Message
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, line)
	}
	return &msg
}

func findResponse(t *testing.T, lines []string, id string) *Message {
	t.Helper()
	for _, l := range lines {
		msg := decodeLine(t, l)
		if string(msg.ID) == id {
			return msg
		}
	}
	t.Fatalf("no response with id %s in %v", id, lines)
	return nil
}

func resultOf(t *testing.T, msg *Message) map[string]any {
	t.Helper()
	data, err := json.Marshal(msg.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("result is not an object: %v", err)
	}
	return m
}

func echoTool() (Tool, Handler) {
	tool := Tool{
		Name:        "echo",
		Description: "returns its text argument",
		InputSchema: map[string]any{"type": "object"},
	}
	handler := func(ctx context.Context, args map[string]any) (string, error) {
		return StringArg(args, "text", ""), nil
	}
	return tool, handler
}

func TestServer_InitializeAndListTools(t *testing.T) {
	srv := NewServer("auris-test", "1.0.0", zap.NewNop())
	srv.Register(echoTool())

	lines := serveScript(t, srv,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	)

	init := resultOf(t, findResponse(t, lines, "1"))
	info, ok := init["serverInfo"].(map[string]any)
	if !ok || info["name"] != "auris-test" {
		t.Errorf("serverInfo = %v, want name auris-test", init["serverInfo"])
	}

	list := resultOf(t, findResponse(t, lines, "2"))
	tools, ok := list["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("tools = %v, want one entry", list["tools"])
	}
}

func TestServer_ToolCallReturnsText(t *testing.T) {
	srv := NewServer("auris-test", "1.0.0", zap.NewNop())
	srv.Register(echoTool())

	lines := serveScript(t, srv,
		`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hello"}}}`,
	)

	result := resultOf(t, findResponse(t, lines, "7"))
	content, _ := result["content"].([]any)
	if len(content) != 1 {
		t.Fatalf("content = %v, want one entry", result["content"])
	}
	entry := content[0].(map[string]any)
	if entry["text"] != "hello" {
		t.Errorf("text = %v, want hello", entry["text"])
	}
	if result["isError"] == true {
		t.Error("isError = true for a successful call")
	}
}

func TestServer_HandlerErrorBecomesTextualError(t *testing.T) {
	srv := NewServer("auris-test", "1.0.0", zap.NewNop())
	srv.Register(Tool{Name: "boom", InputSchema: map[string]any{"type": "object"}},
		func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("device not found")
		})
	srv.Register(echoTool())

	lines := serveScript(t, srv,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"boom","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"text":"still alive"}}}`,
	)

	boom := resultOf(t, findResponse(t, lines, "1"))
	if boom["isError"] != true {
		t.Error("isError = false, want true for a failed call")
	}
	text := boom["content"].([]any)[0].(map[string]any)["text"].(string)
	if !strings.Contains(text, "device not found") {
		t.Errorf("error text = %q, want the underlying cause verbatim", text)
	}

	// The failed call must not take the server down.
	echo := resultOf(t, findResponse(t, lines, "2"))
	got := echo["content"].([]any)[0].(map[string]any)["text"]
	if got != "still alive" {
		t.Errorf("follow-up call text = %v, want still alive", got)
	}
}

func TestServer_PanicIsContained(t *testing.T) {
	srv := NewServer("auris-test", "1.0.0", zap.NewNop())
	srv.Register(Tool{Name: "panic", InputSchema: map[string]any{"type": "object"}},
		func(ctx context.Context, args map[string]any) (string, error) {
			panic("boom")
		})

	lines := serveScript(t, srv,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"panic","arguments":{}}}`,
	)

	result := resultOf(t, findResponse(t, lines, "1"))
	if result["isError"] != true {
		t.Error("panicking handler must produce an error result")
	}
}

func TestServer_UnknownToolAndMethod(t *testing.T) {
	srv := NewServer("auris-test", "1.0.0", zap.NewNop())
	srv.Register(echoTool())

	lines := serveScript(t, srv,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"wat/huh"}`,
	)

	unknownTool := resultOf(t, findResponse(t, lines, "1"))
	if unknownTool["isError"] != true {
		t.Error("unknown tool should be an error result")
	}

	unknownMethod := findResponse(t, lines, "2")
	if unknownMethod.Error == nil || unknownMethod.Error.Code != codeMethodNotFound {
		t.Errorf("unknown method error = %v, want code %d", unknownMethod.Error, codeMethodNotFound)
	}
}

func TestServer_RequestWithoutMethodRejected(t *testing.T) {
	srv := NewServer("auris-test", "1.0.0", zap.NewNop())
	srv.Register(echoTool())

	lines := serveScript(t, srv,
		`{"id":5}`,
		`{"jsonrpc":"1.0","id":6,"method":"ping"}`,
	)

	for _, id := range []string{"5", "6"} {
		msg := findResponse(t, lines, id)
		if msg.Error == nil || msg.Error.Code != codeInvalidRequest {
			t.Errorf("response %s error = %v, want code %d", id, msg.Error, codeInvalidRequest)
		}
	}
}

// waitTool blocks until its context is canceled.
func waitTool() (Tool, Handler) {
	tool := Tool{Name: "wait", InputSchema: map[string]any{"type": "object"}}
	handler := func(ctx context.Context, args map[string]any) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return tool, handler
}

func TestServer_CancelledNotificationAbortsCall(t *testing.T) {
	srv := NewServer("auris-test", "1.0.0", zap.NewNop())
	srv.Register(waitTool())
	srv.Register(echoTool())

	lines := serveScript(t, srv,
		`{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"wait","arguments":{}}}`,
		`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":9}}`,
		`{"jsonrpc":"2.0","id":10,"method":"tools/call","params":{"name":"echo","arguments":{"text":"next"}}}`,
	)

	cancelled := resultOf(t, findResponse(t, lines, "9"))
	if cancelled["isError"] != true {
		t.Error("cancelled call did not produce an error result")
	}
	text := cancelled["content"].([]any)[0].(map[string]any)["text"].(string)
	if !strings.Contains(text, "context canceled") {
		t.Errorf("cancelled call text = %q, want a cancellation cause", text)
	}

	// Cancelling one call must not disturb the next.
	next := resultOf(t, findResponse(t, lines, "10"))
	if got := next["content"].([]any)[0].(map[string]any)["text"]; got != "next" {
		t.Errorf("follow-up call text = %v, want next", got)
	}
}

func TestServer_TransportCloseCancelsInFlightCalls(t *testing.T) {
	srv := NewServer("auris-test", "1.0.0", zap.NewNop())
	srv.Register(waitTool())

	in := strings.NewReader(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"wait","arguments":{}}}` + "\n")
	out := &syncBuffer{}

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(context.Background(), in, out)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() still blocked after the transport closed")
	}

	result := resultOf(t, findResponse(t, out.Lines(), "3"))
	if result["isError"] != true {
		t.Error("call pinned past the transport close did not error")
	}
}

func TestArgAccessors(t *testing.T) {
	args := map[string]any{
		"text":     "hi",
		"duration": 12.0,
		"flag":     true,
	}

	if got := StringArg(args, "text", "x"); got != "hi" {
		t.Errorf("StringArg = %v, want hi", got)
	}
	if got := StringArg(args, "missing", "x"); got != "x" {
		t.Errorf("StringArg fallback = %v, want x", got)
	}
	if got := NumberArg(args, "duration", 5); got != 12 {
		t.Errorf("NumberArg = %v, want 12", got)
	}
	if got := NumberArg(args, "missing", 5); got != 5 {
		t.Errorf("NumberArg fallback = %v, want 5", got)
	}
	if got := BoolArg(args, "flag", false); got != true {
		t.Errorf("BoolArg = %v, want true", got)
	}
	if got := BoolArg(args, "missing", true); got != true {
		t.Errorf("BoolArg fallback = %v, want true", got)
	}
}
