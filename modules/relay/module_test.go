package relay

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/example/relay-chat/domain/chat"
	"github.com/example/relay-chat/events"
	"github.com/go-monolith/mono"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModule_Name(t *testing.T) {
	m := NewModule(&fakeTransport{}, &mockLogger{})
	assert.Equal(t, "relay", m.Name())
	assert.Len(t, m.EmitEvents(), 5)
}

func TestModule_HealthBeforeStart(t *testing.T) {
	m := NewModule(&fakeTransport{}, &mockLogger{})

	status := m.Health(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, "not started", status.Message)
}

func TestModule_StartSubmitStop(t *testing.T) {
	tr := &fakeTransport{}
	m := NewModule(tr, &mockLogger{})
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))

	require.NoError(t, m.Submit(ctx, Connect{ConnID: "A"}))
	require.NoError(t, m.Submit(ctx, Identify{ConnID: "A", Name: "Alice"}))
	require.NoError(t, m.Submit(ctx, SendMessage{ConnID: "A", Message: chat.Message{ID: chat.NumberID(1), Content: "hi"}}))

	require.Eventually(t, func() bool { return len(m.Messages()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, m.Online(), 1)

	status := m.Health(ctx)
	assert.True(t, status.Healthy)
	assert.Equal(t, 1, status.Details["online"])
	assert.Equal(t, 1, status.Details["messages"])

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, m.Stop(stopCtx))

	assert.ErrorIs(t, m.Submit(ctx, ClearChat{ConnID: "A"}), ErrRouterStopped)
	assert.False(t, m.Health(ctx).Healthy)
}

func TestModule_StopWithoutStart(t *testing.T) {
	m := NewModule(&fakeTransport{}, &mockLogger{})
	assert.NoError(t, m.Stop(context.Background()))
}

func TestModule_PublishWithoutBus(t *testing.T) {
	m := NewModule(&fakeTransport{}, &mockLogger{})

	assert.NotPanics(t, func() {
		m.publish(context.Background(), Outbound{Event: EventChatCleared})
		m.publish(context.Background(), Outbound{Event: EventUserConnected, Data: UserPayload{ID: "A", Name: "Alice"}})
	})
}

// recordingBus captures published messages; every other EventBus method is unused.
type recordingBus struct {
	mono.EventBus
	mu   sync.Mutex
	msgs []*mono.Msg
}

func (b *recordingBus) PublishMsg(msg *mono.Msg) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
	return nil
}

func (b *recordingBus) bySubject(subject string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out [][]byte
	for _, msg := range b.msgs {
		if msg.Subject == subject {
			out = append(out, msg.Data)
		}
	}
	return out
}

func TestModule_PresenceEventsCarryOnlineCount(t *testing.T) {
	bus := &recordingBus{}
	m := NewModule(&fakeTransport{}, &mockLogger{})
	m.SetEventBus(bus)
	ctx := context.Background()

	m.router.dispatch(ctx, Connect{ConnID: "A"})
	m.router.dispatch(ctx, Identify{ConnID: "A", Name: "Alice"})
	m.router.dispatch(ctx, Connect{ConnID: "B"})
	m.router.dispatch(ctx, Identify{ConnID: "B", Name: "Bob"})
	m.router.dispatch(ctx, Disconnect{ConnID: "A"})

	joined := bus.bySubject(events.UserJoinedV1.Subject)
	require.Len(t, joined, 2)
	var first, second events.UserJoinedEvent
	require.NoError(t, json.Unmarshal(joined[0], &first))
	require.NoError(t, json.Unmarshal(joined[1], &second))
	assert.Equal(t, 1, first.Online)
	assert.Equal(t, uint64(1), first.Revision)
	assert.Equal(t, 2, second.Online)
	assert.Equal(t, uint64(2), second.Revision)

	left := bus.bySubject(events.UserLeftV1.Subject)
	require.Len(t, left, 1)
	var leave events.UserLeftEvent
	require.NoError(t, json.Unmarshal(left[0], &leave))
	assert.Equal(t, "A", leave.ConnectionID)
	assert.Equal(t, 1, leave.Online)
	assert.Equal(t, uint64(3), leave.Revision)
}
