package bridge

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cuekit-dev/cuekit/pkg/props"
)

const (
	writeTimeout   = 10 * time.Second
	pongTimeout    = 60 * time.Second
	pingInterval   = 45 * time.Second
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// frame is the wire shape of one property change, in either direction:
// server to client for live updates, client to server for edits.
type frame struct {
	Object   string `json:"object"`
	Property string `json:"property"`
	Value    any    `json:"value"`
}

// client is one connected WebSocket consumer. Outbound frames flow through
// a buffered channel drained by writeLoop; a full buffer drops the frame
// rather than stalling the bridge loop.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// handleWebSocket upgrades the connection and starts the client's read and
// write loops.
func (b *Bridge) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()
	b.metrics.clients().Inc()
	b.logger.Info("client connected", "remote", conn.RemoteAddr().String())

	go b.writeLoop(c)
	go b.readLoop(c)
}

// broadcast fans one property change out to every connected client.
// It runs on the bridge loop.
func (b *Bridge) broadcast(objectName string, change props.Change) {
	b.metrics.changes(objectName).Inc()

	msg, err := json.Marshal(frame{
		Object:   objectName,
		Property: change.Name,
		Value:    change.Value,
	})
	if err != nil {
		b.logger.Error("frame encode failed", "object", objectName, "property", change.Name, "error", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
			b.metrics.sent().Inc()
		default:
			b.metrics.dropped().Inc()
		}
	}
}

// readLoop decodes inbound frames and applies them as property updates on
// the bridge loop.
func (b *Bridge) readLoop(c *client) {
	defer b.dropClient(c)

	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				b.logger.Error("read error", "error", err)
			}
			return
		}

		var f frame
		if err := json.Unmarshal(msg, &f); err != nil {
			b.metrics.updateError("bad_frame").Inc()
			b.logger.Warn("invalid frame", "error", err)
			continue
		}

		obj := b.Object(f.Object)
		if obj == nil {
			b.metrics.updateError("unknown_object").Inc()
			continue
		}

		b.loop.Post(func() {
			obj.UpdateProperties(props.Map{f.Property: f.Value})
		})
	}
}

// writeLoop drains the client's send buffer onto the connection and keeps
// the connection alive with pings.
func (b *Bridge) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dropClient removes the client and closes its send channel, ending the
// write loop.
func (b *Bridge) dropClient(c *client) {
	b.mu.Lock()
	_, ok := b.clients[c]
	if ok {
		delete(b.clients, c)
	}
	b.mu.Unlock()

	if ok {
		close(c.send)
		b.metrics.clients().Dec()
		b.logger.Info("client disconnected", "remote", c.conn.RemoteAddr().String())
	}
}
