package relay

import (
	"sync"
	"time"

	"github.com/go-monolith/mono/pkg/types"
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

// delivery is one event recorded by fakeTransport. To is empty for broadcasts.
type delivery struct {
	To  string
	Evt Outbound
}

// fakeTransport records every outbound event in order.
type fakeTransport struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (f *fakeTransport) Broadcast(v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, delivery{Evt: v.(Outbound)})
}

func (f *fakeTransport) SendTo(connID string, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, delivery{To: connID, Evt: v.(Outbound)})
}

func (f *fakeTransport) broadcasts() []Outbound {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Outbound
	for _, d := range f.deliveries {
		if d.To == "" {
			out = append(out, d.Evt)
		}
	}
	return out
}

func (f *fakeTransport) sentTo(connID string) []Outbound {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Outbound
	for _, d := range f.deliveries {
		if d.To == connID {
			out = append(out, d.Evt)
		}
	}
	return out
}

// fixedClock returns a clock that advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Second)
		return t
	}
}
