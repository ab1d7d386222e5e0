package hub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 32
)

// Hub fans events out to connected websocket viewers. Writes never block the
// market: each client has a buffered send channel and a slow client is
// dropped rather than waited on.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]bool
}

type client struct {
	conn  *websocket.Conn
	send  chan []byte
	admin bool
}

func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Local-network event: any origin on the LAN may watch.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]bool),
	}
}

// ServeWS upgrades the request and registers the viewer. welcome, when
// non-nil, is sent first so new screens render immediately. admin marks the
// socket as eligible for admin-only events; the caller has already checked
// the key.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, admin bool, welcome any) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		admin: admin,
	}
	if welcome != nil {
		if raw, err := json.Marshal(welcome); err == nil {
			c.send <- raw
		}
	}

	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.log.Info("viewer connected", "admin", admin, "viewers", count)

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// Broadcast sends v to every connected viewer.
func (h *Hub) Broadcast(v any) {
	h.send(v, false)
}

// BroadcastAdmin sends v to admin-authenticated viewers only.
func (h *Hub) BroadcastAdmin(v any) {
	h.send(v, true)
}

func (h *Hub) send(v any, adminOnly bool) {
	raw, err := json.Marshal(v)
	if err != nil {
		h.log.Error("broadcast marshal failed", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if adminOnly && !c.admin {
			continue
		}
		select {
		case c.send <- raw:
		default:
			// Send buffer full: the viewer is too slow, cut it loose.
			h.dropLocked(c)
		}
	}
}

// Viewers reports the current connection count.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.dropLocked(c)
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) writePump(c *client) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				h.drop(c)
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// readPump discards inbound frames; viewers are read-only. It exists to
// service pongs and to notice disconnects.
func (h *Hub) readPump(c *client) {
	defer h.drop(c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
