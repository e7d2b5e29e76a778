package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	// Liveness
	app.Get("/hello", m.helloHandler)
	app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(m.handleWebSocket))

	// Read views
	api := app.Group("/api/v1")
	api.Get("/messages", m.listMessages)
	api.Get("/presence", m.listPresence)
	api.Get("/stats", m.getStats)
}

// helloHandler handles GET /hello.
func (m *APIModule) helloHandler(c *fiber.Ctx) error {
	return c.SendString("Hello World!")
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
			"online":            len(m.relay.Online()),
		},
	})
}

// listMessages handles GET /api/v1/messages.
func (m *APIModule) listMessages(c *fiber.Ctx) error {
	messages := m.relay.Messages()
	return c.JSON(MessagesResponse{
		Messages: messages,
		Count:    len(messages),
	})
}

// listPresence handles GET /api/v1/presence.
func (m *APIModule) listPresence(c *fiber.Ctx) error {
	online := m.relay.Online()
	return c.JSON(PresenceResponse{
		Online: online,
		Count:  len(online),
	})
}

// getStats handles GET /api/v1/stats.
func (m *APIModule) getStats(c *fiber.Ctx) error {
	if m.stats == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:   "unavailable",
			Message: "Activity stats are not enabled",
		})
	}
	return c.JSON(m.stats.Snapshot())
}
