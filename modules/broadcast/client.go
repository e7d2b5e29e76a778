package broadcast

import (
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// Conn is the part of a websocket connection the write pump needs.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client represents a connected WebSocket client with its outbound queue.
type Client struct {
	ID   string
	conn Conn
	send chan []byte
	once sync.Once
}

// NewClient creates a client whose queue holds up to buffer frames.
func NewClient(id string, conn Conn, buffer int) *Client {
	if buffer <= 0 {
		buffer = 1
	}
	return &Client{
		ID:   id,
		conn: conn,
		send: make(chan []byte, buffer),
	}
}

// enqueue queues a frame without blocking. It reports false when the queue is full.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// close stops the write pump. Safe to call more than once.
func (c *Client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// WritePump drains the queue onto the connection and pings every pingInterval.
// It returns when the queue is closed or a write fails, closing the connection.
func (c *Client) WritePump(pingInterval, writeTimeout time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
