package activity

import (
	"sync"
	"time"
)

// Stats is a point-in-time view of relay activity.
type Stats struct {
	Messages   int        `json:"messages"`
	Replies    int        `json:"replies"`
	Receipts   int        `json:"receipts"`
	Clears     int        `json:"clears"`
	Joins      int        `json:"joins"`
	Leaves     int        `json:"leaves"`
	Online     int        `json:"online"`
	PeakOnline int        `json:"peakOnline"`
	LastEvent  *time.Time `json:"lastEvent,omitempty"`
}

// counters accumulates Stats from bus events. Join and leave events may be
// delivered in any order, so the online count is taken from the event with
// the highest presence revision.
type counters struct {
	mu          sync.RWMutex
	stats       Stats
	presenceRev uint64
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) presence(online int, rev uint64) {
	c.stats.PeakOnline = max(c.stats.PeakOnline, online)
	if rev <= c.presenceRev {
		return
	}
	c.presenceRev = rev
	c.stats.Online = online
}

func (c *counters) touch(ts time.Time) {
	if ts.IsZero() {
		return
	}
	if c.stats.LastEvent == nil || ts.After(*c.stats.LastEvent) {
		c.stats.LastEvent = &ts
	}
}

func (c *counters) joined(online int, rev uint64, ts time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Joins++
	c.presence(online, rev)
	c.touch(ts)
}

func (c *counters) left(online int, rev uint64, ts time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Leaves++
	c.presence(online, rev)
	c.touch(ts)
}

func (c *counters) posted(reply bool, ts time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if reply {
		c.stats.Replies++
	} else {
		c.stats.Messages++
	}
	c.touch(ts)
}

func (c *counters) receipt(ts time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Receipts++
	c.touch(ts)
}

func (c *counters) cleared(ts time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Clears++
	c.touch(ts)
}

func (c *counters) snapshot() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.stats
	if s.LastEvent != nil {
		ts := *s.LastEvent
		s.LastEvent = &ts
	}
	return s
}
