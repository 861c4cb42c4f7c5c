// Package livereload tells connected browsers to reload when watched
// files change. A Hub owns the websocket clients; a Watcher turns
// bursts of file system events into single change notifications.
package livereload

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/river-now/riverblog/kit/id"
	"go.uber.org/zap"
)

const ReloadMessage = "reload"

const writeWait = 5 * time.Second

type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.SugaredLogger

	mu      sync.Mutex
	clients map[*websocket.Conn]string
	closed  bool
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		log:     logger.Sugar(),
		clients: make(map[*websocket.Conn]string),
	}
}

// ServeHTTP upgrades the request and keeps the client until it
// disconnects or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debugw("Live reload upgrade failed", "error", err)
		return
	}

	label := id.Label()
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = label
	count := len(h.clients)
	h.mu.Unlock()
	h.log.Debugw("Live reload client connected", "client", label, "clients", count)

	// Clients never send anything meaningful. Reading is how a closed
	// connection is noticed.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	h.remove(conn)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	label, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		conn.Close()
		h.log.Debugw("Live reload client disconnected", "client", label)
	}
}

// Broadcast sends msg to every client, dropping those that fail.
func (h *Hub) Broadcast(msg string) int {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	sent := 0
	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			h.remove(c)
			continue
		}
		sent++
	}
	return sent
}

// Reload tells every client to reload.
func (h *Hub) Reload() {
	n := h.Broadcast(ReloadMessage)
	h.log.Infow("Reloading browsers", "clients", n)
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := h.clients
	h.clients = make(map[*websocket.Conn]string)
	h.mu.Unlock()
	for c := range conns {
		c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(writeWait))
		c.Close()
	}
}
