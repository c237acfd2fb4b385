package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gitmesh/gitmesh/pkg/monitor"
)

const (
	// WriteTimeout specifies the maximum duration for completing a write operation.
	WriteTimeout = 10 * time.Second
	// SendBuffer is the number of outbound frames queued per connection.
	SendBuffer = 64
	// MaxMessageSize bounds inbound frames.
	MaxMessageSize = 1 << 20
)

// Conn is one websocket client. Only the writer goroutine touches ws for writes.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}

	mu     sync.Mutex
	peerID string
	closed bool
}

func newConn(ws *websocket.Conn, buffer int) *Conn {
	return &Conn{
		ws:   ws,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

func (c *Conn) PeerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peerID
}

// setPeerID returns the previous identifier.
func (c *Conn) setPeerID(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.peerID
	c.peerID = id
	return prev
}

// Send queues msg without blocking; a full buffer or a closed
// connection drops it and reports false.
func (c *Conn) Send(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		monitor.DroppedMessages.Inc()
		return false
	}
}

func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// writeLoop drains the send queue until the connection closes.
func (c *Conn) writeLoop() {
	for {
		select {
		case msg := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(WriteTimeout)); err != nil {
				c.close()
				_ = c.ws.Close()
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()
				_ = c.ws.Close()
				return
			}
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(time.Second))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
