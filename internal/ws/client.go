package ws

import (
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Client is the server side of one websocket connection. Reads happen on the
// handler goroutine; writes can come from any connection's send path, so they
// are serialized by a mutex.
type Client struct {
	ID string

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		conn: conn,
	}
}

// Deliver writes one event to the peer. A failed write marks the connection
// dead and closes it; delivering to a dead handle is a silent no-op, reported
// by the false return.
func (c *Client) Deliver(payload any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(payload); err != nil {
		glog.V(2).Infof("ws: deliver to session %s failed: %v", c.ID, err)
		c.closed = true
		_ = c.conn.Close()
		return false
	}
	return true
}

// Close tears the connection down; the read loop unblocks with an error.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.conn.Close()
}
