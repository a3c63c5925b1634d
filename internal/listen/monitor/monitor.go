// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     monitor
// Description: WebSocket stream of capture lifecycle events
// License:     MIT
// ============================================================================

package monitor

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aurisproject/auris/internal/listen/capture"
)

// Permissive origin check, the monitor binds to localhost.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub broadcasts capture events to connected WebSocket clients. It
// implements capture.EventSink; Publish never blocks the capture loop.
type Hub struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan capture.Event

	server *http.Server
}

// NewHub creates an event hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]chan capture.Event),
	}
}

// Publish sends an event to every connected client. Slow clients drop
// events rather than stalling the recorder.
func (h *Hub) Publish(ev capture.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

// ServeHTTP upgrades the connection and streams events until the client
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ch := make(chan capture.Event, 64)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	h.logger.Info("monitor client connected", zap.String("remote", conn.RemoteAddr().String()))

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// Drain reads so close frames and pings are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case ev := <-ch:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

// Start serves the hub on addr. An empty addr disables the monitor.
func (h *Hub) Start(addr string) error {
	if addr == "" {
		return nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", h)

	h.server = &http.Server{Handler: mux}
	go func() {
		if err := h.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			h.logger.Error("monitor server failed", zap.Error(err))
		}
	}()

	h.logger.Info("monitor listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Stop shuts the monitor down.
func (h *Hub) Stop(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}
