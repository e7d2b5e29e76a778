package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"time"
)

// ErrInvalidMessageID is returned when a message id is neither a JSON number nor a string.
var ErrInvalidMessageID = errors.New("message id must be a number or a string")

// User represents an identified connection.
type User struct {
	ConnectionID string `json:"id"`
	DisplayName  string `json:"name"`
	Online       bool   `json:"online"`
}

// MessageID is the client-supplied identifier of a message, usually the
// sender's millisecond timestamp. The id keeps the JSON form it arrived in:
// a number is written back as the same number literal and a string as the
// same string, so "1000" and 1000 are different ids.
type MessageID struct {
	raw    string
	quoted bool
}

// NewMessageID derives an id from t the same way clients do.
func NewMessageID(t time.Time) MessageID {
	return NumberID(t.UnixMilli())
}

// NumberID returns a numeric id.
func NumberID(n int64) MessageID {
	return MessageID{raw: strconv.FormatInt(n, 10)}
}

// TextID returns a string id.
func TextID(s string) MessageID {
	return MessageID{raw: s, quoted: true}
}

// IsZero reports whether no id was given.
func (id MessageID) IsZero() bool {
	return id.raw == "" && !id.quoted
}

// IsText reports whether the id is a JSON string.
func (id MessageID) IsText() bool {
	return id.quoted
}

// String returns the id as it was sent, without quotes.
func (id MessageID) String() string {
	return id.raw
}

// Key returns the lookup key of the id. Numbers with the same value share a
// key (1000 and 1e3); a string never shares a key with a number.
func (id MessageID) Key() string {
	if id.quoted {
		return "s:" + id.raw
	}
	if f, err := strconv.ParseFloat(id.raw, 64); err == nil {
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	return "n:" + id.raw
}

// Equal reports whether both ids address the same message.
func (id MessageID) Equal(other MessageID) bool {
	return id.Key() == other.Key()
}

// MarshalJSON implements json.Marshaler.
func (id MessageID) MarshalJSON() ([]byte, error) {
	switch {
	case id.IsZero():
		return []byte("null"), nil
	case id.quoted:
		return json.Marshal(id.raw)
	}
	return []byte(id.raw), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *MessageID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		return ErrInvalidMessageID
	case bytes.Equal(data, []byte("null")):
		*id = MessageID{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = TextID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return ErrInvalidMessageID
	}
	*id = MessageID{raw: n.String()}
	return nil
}

// Message is a chat message as kept in the log. Fields the relay does not
// know about are preserved in Extra and written back unchanged.
type Message struct {
	ID            MessageID
	Sender        string
	Content       string
	ReplyTo       *MessageID
	Seen          bool
	SeenBy        []string
	SeenTimestamp *time.Time
	Extra         map[string]json.RawMessage
}

// messageFields mirrors the known wire fields of Message.
type messageFields struct {
	ID            MessageID  `json:"id"`
	Sender        string     `json:"sender"`
	Content       string     `json:"content"`
	ReplyTo       *MessageID `json:"replyTo,omitempty"`
	Seen          bool       `json:"seen"`
	SeenBy        []string   `json:"seenBy"`
	SeenTimestamp *time.Time `json:"seenTimestamp,omitempty"`
}

var knownMessageFields = []string{"id", "sender", "content", "replyTo", "seen", "seenBy", "seenTimestamp"}

// MarshalJSON implements json.Marshaler.
func (m Message) MarshalJSON() ([]byte, error) {
	seenBy := m.SeenBy
	if seenBy == nil {
		seenBy = []string{}
	}
	known, err := json.Marshal(messageFields{
		ID:            m.ID,
		Sender:        m.Sender,
		Content:       m.Content,
		ReplyTo:       m.ReplyTo,
		Seen:          m.Seen,
		SeenBy:        seenBy,
		SeenTimestamp: m.SeenTimestamp,
	})
	if err != nil || len(m.Extra) == 0 {
		return known, err
	}

	out := make(map[string]json.RawMessage, len(m.Extra)+len(knownMessageFields))
	for k, v := range m.Extra {
		out[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Message) UnmarshalJSON(data []byte) error {
	var fields messageFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range knownMessageFields {
		delete(all, k)
	}
	if len(all) == 0 {
		all = nil
	}

	*m = Message{
		ID:            fields.ID,
		Sender:        fields.Sender,
		Content:       fields.Content,
		ReplyTo:       fields.ReplyTo,
		Seen:          fields.Seen,
		SeenBy:        fields.SeenBy,
		SeenTimestamp: fields.SeenTimestamp,
		Extra:         all,
	}
	return nil
}

// HasReader reports whether reader already acknowledged the message.
func (m *Message) HasReader(reader string) bool {
	return slices.Contains(m.SeenBy, reader)
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	c := m
	c.SeenBy = slices.Clone(m.SeenBy)
	if m.ReplyTo != nil {
		r := *m.ReplyTo
		c.ReplyTo = &r
	}
	if m.SeenTimestamp != nil {
		ts := *m.SeenTimestamp
		c.SeenTimestamp = &ts
	}
	if m.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(m.Extra))
		for k, v := range m.Extra {
			c.Extra[k] = slices.Clone(v)
		}
	}
	return c
}
