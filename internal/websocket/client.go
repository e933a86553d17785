package websocket

import (
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Conn is the subset of a websocket connection the client pumps use
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client represents a WebSocket client connection
type Client struct {
	ID   string // User ID
	Conn Conn
	Hub  *Hub
	Send chan []byte

	// announced is guarded by Hub.mu
	announced bool
}

// NewClient creates a new WebSocket client
func NewClient(userID string, conn Conn, hub *Hub) *Client {
	return &Client{
		ID:   userID,
		Conn: conn,
		Hub:  hub,
		Send: make(chan []byte, 256),
	}
}

// ReadPump handles incoming messages from the client
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Leave(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("user_id", c.ID).Msg("WebSocket error")
			}
			break
		}

		var incoming IncomingMessage
		if err := json.Unmarshal(message, &incoming); err != nil {
			log.Warn().Err(err).Str("user_id", c.ID).Msg("Failed to parse message")
			continue
		}

		c.handleIncomingMessage(incoming)
	}
}

// WritePump handles outgoing messages to the client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().Err(err).Str("user_id", c.ID).Msg("Write error")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleIncomingMessage processes different types of incoming messages
func (c *Client) handleIncomingMessage(msg IncomingMessage) {
	switch msg.Type {
	case EventOnlineUsers:
		c.handleAnnounce(msg.Payload)
	default:
		log.Debug().Str("user_id", c.ID).Str("type", string(msg.Type)).Msg("Unknown message type")
	}
}

// handleAnnounce accepts the announcement only for the authenticated user
func (c *Client) handleAnnounce(payload json.RawMessage) {
	var userID string
	if err := json.Unmarshal(payload, &userID); err != nil || userID != c.ID {
		c.SendMessage(WSMessage{
			Type: EventError,
			Payload: ErrorPayload{
				Code:    "invalid_announce",
				Message: "announced user does not match the session",
			},
			Timestamp: time.Now(),
		})
		return
	}

	c.Hub.announce(c)
}

// SendMessage queues a message for the client, dropping it if the buffer is full
func (c *Client) SendMessage(msg WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	// Send is closed once the client is replaced or unregistered
	c.Hub.mu.RLock()
	defer c.Hub.mu.RUnlock()
	if c.Hub.Clients[c.ID] != c {
		return nil
	}

	select {
	case c.Send <- data:
	default:
		log.Warn().Str("user_id", c.ID).Msg("Client send buffer full, dropping message")
	}

	return nil
}
