package activity

import (
	"context"
	"fmt"

	"github.com/example/relay-chat/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// ActivityModule consumes relay events from the bus and keeps activity counters.
type ActivityModule struct {
	counters *counters
	logger   types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*ActivityModule)(nil)
var _ mono.EventConsumerModule = (*ActivityModule)(nil)
var _ mono.HealthCheckableModule = (*ActivityModule)(nil)

// NewModule creates a new ActivityModule.
func NewModule(logger types.Logger) *ActivityModule {
	return &ActivityModule{
		counters: newCounters(),
		logger:   logger.WithModule("activity"),
	}
}

// Name returns the module name.
func (m *ActivityModule) Name() string {
	return "activity"
}

// Start initializes the module.
func (m *ActivityModule) Start(_ context.Context) error {
	m.logger.Info("Activity module started")
	return nil
}

// Stop shuts down the module.
func (m *ActivityModule) Stop(_ context.Context) error {
	s := m.counters.snapshot()
	m.logger.Info("Activity module stopped",
		"messages", s.Messages,
		"replies", s.Replies,
		"peakOnline", s.PeakOnline,
	)
	return nil
}

// Health returns the health status.
func (m *ActivityModule) Health(_ context.Context) mono.HealthStatus {
	s := m.counters.snapshot()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"online":      s.Online,
			"peak_online": s.PeakOnline,
			"messages":    s.Messages + s.Replies,
		},
	}
}

// Snapshot returns the current counters.
func (m *ActivityModule) Snapshot() Stats {
	return m.counters.snapshot()
}

// RegisterEventConsumers registers event handlers.
func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserJoinedV1, m.handleUserJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register UserJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserLeftV1, m.handleUserLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register UserLeft consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessagePostedV1, m.handleMessagePosted, m,
	); err != nil {
		return fmt.Errorf("failed to register MessagePosted consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.ReceiptRecordedV1, m.handleReceiptRecorded, m,
	); err != nil {
		return fmt.Errorf("failed to register ReceiptRecorded consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.ChatClearedV1, m.handleChatCleared, m,
	); err != nil {
		return fmt.Errorf("failed to register ChatCleared consumer: %w", err)
	}

	m.logger.Info("Registered event consumers",
		"events", "UserJoined, UserLeft, MessagePosted, ReceiptRecorded, ChatCleared")
	return nil
}

// Event handlers

func (m *ActivityModule) handleUserJoined(_ context.Context, event events.UserJoinedEvent, _ *mono.Msg) error {
	m.counters.joined(event.Online, event.Revision, event.Timestamp)
	return nil
}

func (m *ActivityModule) handleUserLeft(_ context.Context, event events.UserLeftEvent, _ *mono.Msg) error {
	m.counters.left(event.Online, event.Revision, event.Timestamp)
	return nil
}

func (m *ActivityModule) handleMessagePosted(_ context.Context, event events.MessagePostedEvent, _ *mono.Msg) error {
	m.logger.Debug("Message posted", "messageID", event.MessageID, "sender", event.Sender, "reply", event.Reply)
	m.counters.posted(event.Reply, event.Timestamp)
	return nil
}

func (m *ActivityModule) handleReceiptRecorded(_ context.Context, event events.ReceiptRecordedEvent, _ *mono.Msg) error {
	m.counters.receipt(event.Timestamp)
	return nil
}

func (m *ActivityModule) handleChatCleared(_ context.Context, event events.ChatClearedEvent, _ *mono.Msg) error {
	m.counters.cleared(event.Timestamp)
	return nil
}
