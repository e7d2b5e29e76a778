package api

import (
	"context"
	"errors"
	"time"

	"github.com/example/relay-chat/modules/broadcast"
	"github.com/example/relay-chat/modules/relay"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// handleWebSocket runs one relay session at /ws. Every frame is decoded at the
// boundary and submitted to the relay; replies flow back through the hub.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	connID := uuid.NewString()
	ctx := context.Background()
	logger := m.logger.With("connID", connID)

	client := broadcast.NewClient(connID, c, m.cfg.SendBuffer)
	m.hub.Register(client)

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		client.WritePump(m.cfg.PingInterval, m.cfg.WriteTimeout)
	}()

	// The hub must know the client before the relay answers with sync.
	if err := m.relay.Submit(ctx, relay.Connect{ConnID: connID}); err != nil {
		logger.Warn("Rejecting connection", "error", err)
		m.hub.Unregister(client)
		<-pumpDone
		return
	}
	logger.Debug("WebSocket client connected", "remote", c.RemoteAddr().String())

	defer func() {
		m.hub.Unregister(client)
		<-pumpDone
		if err := m.relay.Submit(ctx, relay.Disconnect{ConnID: connID}); err != nil && !errors.Is(err, relay.ErrRouterStopped) {
			logger.Warn("Failed to submit disconnect", "error", err)
		}
		logger.Debug("WebSocket client disconnected")
	}()

	c.SetReadLimit(m.cfg.MaxMessageBytes)
	_ = c.SetReadDeadline(time.Now().Add(m.cfg.PongTimeout))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(m.cfg.PongTimeout))
	})

	var limiter *rate.Limiter
	if m.cfg.InboundRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(m.cfg.InboundRate), m.cfg.InboundBurst)
	}

	for {
		_, frame, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Client closed connection")
			} else {
				logger.Debug("Read error", "error", err)
			}
			return
		}
		_ = c.SetReadDeadline(time.Now().Add(m.cfg.PongTimeout))

		if limiter != nil && !limiter.Allow() {
			m.sendError(connID, "rate limit exceeded")
			continue
		}

		in, err := relay.DecodeInbound(connID, frame)
		if err != nil {
			logger.Warn("Rejected inbound frame", "error", err)
			m.sendError(connID, err.Error())
			continue
		}

		if err := m.relay.Submit(ctx, in); err != nil {
			logger.Warn("Relay unavailable", "error", err)
			return
		}
	}
}

// sendError answers the originating connection only.
func (m *APIModule) sendError(connID, message string) {
	m.hub.SendTo(connID, relay.Outbound{
		Event: relay.EventError,
		Data:  relay.ErrorPayload{Message: message},
	})
}
