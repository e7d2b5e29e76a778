package activity

import (
	"context"
	"testing"
	"time"

	"github.com/example/relay-chat/events"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

func TestActivityModule_Counters(t *testing.T) {
	m := NewModule(&mockLogger{})
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, m.handleUserJoined(ctx, events.UserJoinedEvent{ConnectionID: "c1", Name: "Alice", Online: 1, Revision: 1, Timestamp: t0}, nil))
	require.NoError(t, m.handleUserJoined(ctx, events.UserJoinedEvent{ConnectionID: "c2", Name: "Bob", Online: 2, Revision: 2, Timestamp: t0}, nil))
	// Renaming a connection joins again without adding a user.
	require.NoError(t, m.handleUserJoined(ctx, events.UserJoinedEvent{ConnectionID: "c2", Name: "Bobby", Online: 2, Revision: 3, Timestamp: t0}, nil))
	require.NoError(t, m.handleMessagePosted(ctx, events.MessagePostedEvent{MessageID: "1", Sender: "Alice", Timestamp: t0}, nil))
	require.NoError(t, m.handleMessagePosted(ctx, events.MessagePostedEvent{MessageID: "2", Sender: "Bob", Reply: true, Timestamp: t0}, nil))
	require.NoError(t, m.handleReceiptRecorded(ctx, events.ReceiptRecordedEvent{MessageID: "1", Reader: "Bob", Timestamp: t0}, nil))
	require.NoError(t, m.handleUserLeft(ctx, events.UserLeftEvent{ConnectionID: "c1", Name: "Alice", Online: 1, Revision: 4, Timestamp: t0}, nil))
	last := t0.Add(time.Minute)
	require.NoError(t, m.handleChatCleared(ctx, events.ChatClearedEvent{Timestamp: last}, nil))

	s := m.Snapshot()
	assert.Equal(t, 1, s.Messages)
	assert.Equal(t, 1, s.Replies)
	assert.Equal(t, 1, s.Receipts)
	assert.Equal(t, 1, s.Clears)
	assert.Equal(t, 3, s.Joins)
	assert.Equal(t, 1, s.Leaves)
	assert.Equal(t, 1, s.Online)
	assert.Equal(t, 2, s.PeakOnline)
	require.NotNil(t, s.LastEvent)
	assert.True(t, last.Equal(*s.LastEvent))
}

func TestActivityModule_OnlineSurvivesReorderedPresenceEvents(t *testing.T) {
	tests := []struct {
		name       string
		deliver    func(m *ActivityModule) error
		wantOnline int
		wantPeak   int
	}{
		{
			name: "leave handled before join",
			deliver: func(m *ActivityModule) error {
				ctx := context.Background()
				if err := m.handleUserLeft(ctx, events.UserLeftEvent{ConnectionID: "c1", Online: 0, Revision: 2}, nil); err != nil {
					return err
				}
				return m.handleUserJoined(ctx, events.UserJoinedEvent{ConnectionID: "c1", Online: 1, Revision: 1}, nil)
			},
			wantOnline: 0,
			wantPeak:   1,
		},
		{
			name: "second join handled before first",
			deliver: func(m *ActivityModule) error {
				ctx := context.Background()
				if err := m.handleUserJoined(ctx, events.UserJoinedEvent{ConnectionID: "c2", Online: 2, Revision: 2}, nil); err != nil {
					return err
				}
				return m.handleUserJoined(ctx, events.UserJoinedEvent{ConnectionID: "c1", Online: 1, Revision: 1}, nil)
			},
			wantOnline: 2,
			wantPeak:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModule(&mockLogger{})
			require.NoError(t, tt.deliver(m))

			s := m.Snapshot()
			assert.Equal(t, tt.wantOnline, s.Online)
			assert.Equal(t, tt.wantPeak, s.PeakOnline)
		})
	}
}

func TestActivityModule_LastEventIgnoresOlderTimestamps(t *testing.T) {
	m := NewModule(&mockLogger{})
	ctx := context.Background()
	newer := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, m.handleChatCleared(ctx, events.ChatClearedEvent{Timestamp: newer}, nil))
	require.NoError(t, m.handleChatCleared(ctx, events.ChatClearedEvent{Timestamp: newer.Add(-time.Hour)}, nil))
	require.NoError(t, m.handleChatCleared(ctx, events.ChatClearedEvent{}, nil))

	s := m.Snapshot()
	assert.Equal(t, 3, s.Clears)
	require.NotNil(t, s.LastEvent)
	assert.True(t, newer.Equal(*s.LastEvent))
}

func TestActivityModule_Lifecycle(t *testing.T) {
	m := NewModule(&mockLogger{})
	assert.Equal(t, "activity", m.Name())
	require.NoError(t, m.Start(context.Background()))

	require.NoError(t, m.handleUserJoined(context.Background(), events.UserJoinedEvent{ConnectionID: "c1", Online: 1, Revision: 1}, nil))

	health := m.Health(context.Background())
	assert.True(t, health.Healthy)
	assert.Equal(t, 1, health.Details["online"])
	assert.Equal(t, 1, health.Details["peak_online"])
	assert.Equal(t, 0, health.Details["messages"])

	require.NoError(t, m.Stop(context.Background()))
}
