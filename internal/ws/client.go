package ws

import (
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one websocket session of an authenticated user. Send is never
// closed; the hub signals shutdown through done so that bridge callbacks can
// keep pushing without racing a channel close.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	SessionID string
	UserID    string

	done chan struct{}
}

// NewClient wraps an upgraded connection for userID.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		Hub:       hub,
		Conn:      conn,
		Send:      make(chan []byte, 64),
		SessionID: uuid.NewString(),
		UserID:    userID,
		done:      make(chan struct{}),
	}
}

// ReadPump blocks until the peer disconnects, then unregisters the client.
// Inbound frames are discarded; the socket is server-push only.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

// WritePump drains Send until the hub signals shutdown.
func (c *Client) WritePump() {
	defer c.Conn.Close()
	for {
		select {
		case message := <-c.Send:
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
