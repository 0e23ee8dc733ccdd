package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one connected player. ID is the player id from the auth token;
// Channel is the lobby channel the socket subscribed to on connect.
type Client struct {
	ID      string
	Channel string
	Conn    *websocket.Conn
	Send    chan []byte
}

// WritePump drains the send queue onto the socket. Runs in its own
// goroutine per client; exits when Send is closed.
func (c *Client) WritePump() {
	defer c.Conn.Close()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
