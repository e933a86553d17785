package handlers

import (
	"context"

	ws "inboxrank/server/internal/websocket"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// InitWebSocket starts a presence hub that persists status through store
func InitWebSocket(ctx context.Context, store ws.StatusStore) *ws.Hub {
	WSHub = ws.NewHub(store)
	go WSHub.Run(ctx)
	log.Info().Msg("Presence hub initialized")
	return WSHub
}

// WebSocketUpgrade checks if the request should be upgraded to WebSocket
func WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}

	return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
		"success": false,
		"error":   "WebSocket upgrade required",
	})
}

// WebSocketHandler handles WebSocket connections
func WebSocketHandler(c *websocket.Conn) {
	// Set by auth middleware
	userID, _ := c.Locals("userID").(string)
	if userID == "" {
		c.Close()
		return
	}

	client := ws.NewClient(userID, c, WSHub)
	if !WSHub.Join(client) {
		c.Close()
		return
	}

	go client.WritePump()
	client.ReadPump() // Blocks until connection closes
}

// GetWebSocketStats returns WebSocket connection statistics
func GetWebSocketStats(c *fiber.Ctx) error {
	if WSHub == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "WebSocket hub not initialized",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"connections": WSHub.GetOnlineCount(),
			"userIds":     WSHub.GetOnlineUsers(),
		},
	})
}
