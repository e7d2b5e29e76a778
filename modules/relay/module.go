package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/example/relay-chat/domain/chat"
	"github.com/example/relay-chat/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// Module runs the Router inside the mono application and publishes relay
// activity on the event bus.
type Module struct {
	router    *Router
	eventBus  mono.EventBus
	logger    types.Logger
	cancelRun context.CancelFunc
	startedAt time.Time

	// presenceRev is only touched from the router goroutine.
	presenceRev uint64
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
)

// NewModule creates the relay module fanning out through transport.
func NewModule(transport Transport, logger types.Logger, opts ...RouterOption) *Module {
	m := &Module{
		logger: logger.WithModule("relay"),
	}
	opts = append(opts, WithObserver(m.publish))
	m.router = NewRouter(transport, m.logger, opts...)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "relay"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.UserJoinedV1.ToBase(),
		events.UserLeftV1.ToBase(),
		events.MessagePostedV1.ToBase(),
		events.ReceiptRecordedV1.ToBase(),
		events.ChatClearedV1.ToBase(),
	}
}

// Start launches the router loop.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelRun = cancel
	m.startedAt = time.Now()
	go m.router.Run(ctx)
	m.logger.Info("Relay module started")
	return nil
}

// Stop ends the router loop and waits for it to exit.
func (m *Module) Stop(ctx context.Context) error {
	if m.cancelRun == nil {
		return nil
	}
	m.cancelRun()
	select {
	case <-m.router.Done():
	case <-ctx.Done():
		return fmt.Errorf("relay: waiting for router: %w", ctx.Err())
	}
	m.logger.Info("Relay module stopped", "messages", m.router.store.Len())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.startedAt.IsZero() {
		return mono.HealthStatus{
			Healthy: false,
			Message: "not started",
		}
	}
	select {
	case <-m.router.Done():
		return mono.HealthStatus{
			Healthy: false,
			Message: "router stopped",
		}
	default:
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connections": m.router.Connections(),
			"online":      m.router.presence.Count(),
			"messages":    m.router.store.Len(),
			"uptime":      time.Since(m.startedAt).Round(time.Second).String(),
		},
	}
}

// Submit hands an inbound event to the router.
func (m *Module) Submit(ctx context.Context, in Inbound) error {
	return m.router.Submit(ctx, in)
}

// Messages returns a snapshot of the message log.
func (m *Module) Messages() []chat.Message {
	return m.router.Messages()
}

// Online returns a snapshot of the online users.
func (m *Module) Online() []chat.User {
	return m.router.Online()
}

// publish mirrors fanned-out events onto the event bus.
func (m *Module) publish(_ context.Context, evt Outbound) {
	if m.eventBus == nil {
		return
	}

	now := time.Now()
	var err error
	switch evt.Event {
	case EventUserConnected:
		if p, ok := evt.Data.(UserPayload); ok {
			m.presenceRev++
			err = events.UserJoinedV1.Publish(m.eventBus, events.UserJoinedEvent{
				ConnectionID: p.ID,
				Name:         p.Name,
				Online:       m.router.presence.Count(),
				Revision:     m.presenceRev,
				Timestamp:    now,
			}, nil)
		}
	case EventUserDisconnected:
		if p, ok := evt.Data.(UserPayload); ok {
			m.presenceRev++
			err = events.UserLeftV1.Publish(m.eventBus, events.UserLeftEvent{
				ConnectionID: p.ID,
				Name:         p.Name,
				Online:       m.router.presence.Count(),
				Revision:     m.presenceRev,
				Timestamp:    now,
			}, nil)
		}
	case EventReceiveMessage, EventReceiveReply:
		if msg, ok := evt.Data.(chat.Message); ok {
			err = events.MessagePostedV1.Publish(m.eventBus, events.MessagePostedEvent{
				MessageID: msg.ID.String(),
				Sender:    msg.Sender,
				Reply:     evt.Event == EventReceiveReply,
				Timestamp: now,
			}, nil)
		}
	case EventMessageSeen:
		if p, ok := evt.Data.(SeenPayload); ok {
			err = events.ReceiptRecordedV1.Publish(m.eventBus, events.ReceiptRecordedEvent{
				MessageID: p.MessageID.String(),
				Reader:    p.Username,
				Timestamp: p.SeenTimestamp,
			}, nil)
		}
	case EventChatCleared:
		err = events.ChatClearedV1.Publish(m.eventBus, events.ChatClearedEvent{Timestamp: now}, nil)
	}

	if err != nil {
		m.logger.Warn("Failed to publish relay event", "event", evt.Event, "error", err)
	}
}
