package ws

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type Client struct {
	ID          string
	Conn        *websocket.Conn
	Send        chan []byte   // Channel for outgoing messages
	RateLimiter *rate.Limiter // Rate limiter to prevent spamming
	closed      bool          // Flag to check if the connection is closed
	mu          sync.Mutex    // Mutex to protect the closed flag
}

// ReadMessages drains incoming frames from the client. The feed is
// broadcast-only; inbound frames beyond the rate limit disconnect the client.
func (c *Client) ReadMessages(hub *Hub) {
	defer func() {
		c.Disconnect(hub)
		log.Debugf("Connection closed for client %s", c.ID)
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			log.Debugf("Error reading message from client %s: %v", c.ID, err)
			return
		}
		if !c.RateLimiter.Allow() {
			log.Warnf("Rate limit exceeded for client %s", c.ID)
			return
		}
	}
}

// WriteMessages sends outgoing messages to the client.
func (c *Client) WriteMessages() {
	defer func() {
		c.Conn.Close()
	}()

	for message := range c.Send {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}

		err := c.Conn.WriteMessage(websocket.TextMessage, message)
		c.mu.Unlock()

		if err != nil {
			log.Debugf("Error sending message to client %s: %v", c.ID, err)
			return
		}
	}
}

// Disconnect cleans up client resources.
func (c *Client) Disconnect(hub *Hub) {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
	c.mu.Unlock()

	if hub != nil {
		hub.remove(c)
	}

	c.Conn.Close()
}
