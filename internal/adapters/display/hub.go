package display

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/bft-labs/paintwatch/internal/ports"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Clients send nothing but control frames and hotkeys.
	maxMessageSize = 4 * 1024

	clientBuffer    = 64
	broadcastBuffer = 256
)

type messageKind int

const (
	textMessage messageKind = iota
	binaryMessage
)

type message struct {
	kind messageKind
	data []byte
}

// hub fans messages out to every connected websocket client. Slow clients
// whose buffers fill up are dropped rather than blocking the broadcaster.
type hub struct {
	name   string
	logger ports.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}

	broadcast  chan message
	register   chan *client
	unregister chan *client
	done       chan struct{}
	once       sync.Once

	// greet, when set, produces messages queued to every new client.
	greet func() []message
}

func newHub(name string, logger ports.Logger) *hub {
	return &hub{
		name:       name,
		logger:     logger,
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan message, broadcastBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

func (h *hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			if h.greet != nil {
				for _, m := range h.greet() {
					c.queue(m)
				}
			}
			h.logger.Debug("client connected",
				ports.String("hub", h.name),
				ports.String("client", c.id),
				ports.Int("clients", count))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected",
				ports.String("hub", h.name),
				ports.String("client", c.id),
				ports.Int("clients", count))

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if !c.queue(m) {
					delete(h.clients, c)
					close(c.send)
					h.logger.Warn("dropped slow client",
						ports.String("hub", h.name),
						ports.String("client", c.id))
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *hub) stop() {
	h.once.Do(func() { close(h.done) })
}

// send queues m for every client. Never blocks.
func (h *hub) send(m message) {
	select {
	case h.broadcast <- m:
	default:
		h.logger.Warn("broadcast queue full, dropping message", ports.String("hub", h.name))
	}
}

func (h *hub) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("encode broadcast", ports.String("hub", h.name), ports.Err(err))
		return
	}
	h.send(message{kind: textMessage, data: data})
}

func (h *hub) sendBinary(data []byte) {
	h.send(message{kind: binaryMessage, data: data})
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// serve registers conn and pumps messages until it closes.
// onText receives every text message the client sends.
func (h *hub) serve(conn *websocket.Conn, onText func([]byte)) {
	c := &client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan message, clientBuffer),
	}
	select {
	case h.register <- c:
	case <-h.done:
		return
	}
	go c.writePump()
	c.readPump(onText)
}

type client struct {
	id   string
	hub  *hub
	conn *websocket.Conn
	send chan message
}

// queue is only called from the hub goroutine.
func (c *client) queue(m message) bool {
	select {
	case c.send <- m:
		return true
	default:
		return false
	}
}

func (c *client) readPump(onText func([]byte)) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if kind == websocket.TextMessage && onText != nil {
			onText(data)
		}
	}
}

// writePump is the only writer on the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case m, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			wsType := websocket.TextMessage
			if m.kind == binaryMessage {
				wsType = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(wsType, m.data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
