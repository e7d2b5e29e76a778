package relay

import (
	"sync"
	"time"

	"github.com/example/relay-chat/domain/chat"
)

// Store is the ordered, in-memory message log. Messages are appended in send
// order and updated in place when readers acknowledge them.
//
// Duplicate ids are accepted; lookups by id resolve to the first message
// that carried the id.
type Store struct {
	mu       sync.RWMutex
	messages []*chat.Message
	index    map[string]int
	now      func() time.Time
}

// Receipt is the outcome of Store.MarkSeen.
type Receipt struct {
	// Message is the stored message after the receipt was applied.
	Message chat.Message
	// Found is false when no message has the id.
	Found bool
	// Added is true when the reader was not yet in SeenBy.
	Added bool
}

// NewStore creates an empty store. now supplies receipt timestamps; nil means time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		messages: make([]*chat.Message, 0),
		index:    make(map[string]int),
		now:      now,
	}
}

// Append adds msg at the end of the log with fresh receipt fields and returns the stored copy.
func (s *Store) Append(msg chat.Message) chat.Message {
	stored := msg.Clone()
	stored.Seen = false
	stored.SeenBy = []string{}
	stored.SeenTimestamp = nil

	s.mu.Lock()
	defer s.mu.Unlock()

	key := stored.ID.Key()
	if _, dup := s.index[key]; !dup {
		s.index[key] = len(s.messages)
	}
	s.messages = append(s.messages, &stored)
	return stored.Clone()
}

// MarkSeen records reader as having read the message with the given id.
// A reader already present leaves the message untouched.
func (s *Store) MarkSeen(id chat.MessageID, reader string) Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id.Key()]
	if !ok {
		return Receipt{}
	}
	msg := s.messages[pos]
	if msg.HasReader(reader) {
		return Receipt{Message: msg.Clone(), Found: true}
	}

	ts := s.now()
	msg.SeenBy = append(msg.SeenBy, reader)
	msg.Seen = true
	msg.SeenTimestamp = &ts
	return Receipt{Message: msg.Clone(), Found: true, Added: true}
}

// Clear drops every message.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = make([]*chat.Message, 0)
	s.index = make(map[string]int)
}

// All returns a copy of the log in insertion order.
func (s *Store) All() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]chat.Message, len(s.messages))
	for i, msg := range s.messages {
		result[i] = msg.Clone()
	}
	return result
}

// Len returns the number of stored messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
