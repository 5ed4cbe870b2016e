// Package realtime fans order status events out to websocket subscribers.
package realtime

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// sendBufferSize bounds the per-client outbound queue. A client that
	// falls this far behind starts losing events rather than stalling the
	// broadcast path.
	sendBufferSize = 32

	writeWait = 10 * time.Second
)

// Conn is the subset of a websocket connection the registry writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one registered websocket subscriber. Writes go through the send
// channel so that a single goroutine owns the connection.
type Client struct {
	UserID uuid.UUID

	conn Conn
	send chan []byte
	done chan struct{}

	// onWriteError is set by the registry at registration time so a failed
	// write removes the client immediately rather than waiting for the
	// gateway's read loop to observe the closed connection.
	onWriteError func()
}

// NewClient wraps conn for registration. UserID identifies the authenticated
// subscriber and is used for targeted sends.
func NewClient(userID uuid.UUID, conn Conn) *Client {
	return &Client{
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// writePump drains the send channel onto the connection. It exits on the
// first write error or when the client is closed, closing the underlying
// connection either way.
func (c *Client) writePump() {
	defer c.conn.Close() //nolint:errcheck
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Debug("Websocket write failed", "user_id", c.UserID, "error", err)
				if c.onWriteError != nil {
					c.onWriteError()
				}
				return
			}
		case <-c.done:
			return
		}
	}
}

// enqueue hands a message to the write pump without blocking. It reports
// whether the message was accepted.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close stops the write pump. Safe to call once; the registry guarantees
// single closure via its bookkeeping.
func (c *Client) close() {
	close(c.done)
}
