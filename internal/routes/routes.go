package routes

import (
	"inboxrank/server/internal/handlers"
	"inboxrank/server/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App) {
	// API v1 group
	api := app.Group("/api/v1")

	// Health check (public)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Inbox API is running",
		})
	})

	// Inbox routes (protected)
	api.Get("/inbox", middleware.AuthMiddleware, middleware.RelaxedRateLimiter(), handlers.GetInbox)

	conversations := api.Group("/conversations", middleware.AuthMiddleware)
	conversations.Get("/", middleware.RelaxedRateLimiter(), handlers.GetConversations)
	conversations.Post("/", middleware.ModerateRateLimiter(), handlers.CreateConversation)
	conversations.Put("/:conversationId/seen", handlers.MarkSeen)

	users := api.Group("/users", middleware.AuthMiddleware)
	users.Get("/suggested", middleware.RelaxedRateLimiter(), handlers.GetSuggestedUsers)

	// WebSocket route (protected)
	api.Get("/ws", middleware.AuthMiddleware, handlers.WebSocketUpgrade, websocket.New(handlers.WebSocketHandler))

	// WebSocket stats (protected, for debugging)
	api.Get("/ws/stats", middleware.AuthMiddleware, handlers.GetWebSocketStats)
}
