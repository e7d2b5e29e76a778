package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/relay-chat/domain/chat"
)

// Inbound event names (client -> relay).
const (
	EventIdentify    = "identify"
	EventNewUser     = "new-user" // legacy name for identify
	EventSendMessage = "send-message"
	EventSendReply   = "send-reply"
	EventTyping      = "typing"
	EventMarkSeen    = "mark-seen"
	EventClearChat   = "clear-chat"
)

// Outbound event names (relay -> clients).
const (
	EventUserConnected    = "user-connected"
	EventReceiveMessage   = "receive-message"
	EventReceiveReply     = "receive-reply"
	EventUserTyping       = "user-typing"
	EventMessageSeen      = "message-seen"
	EventChatCleared      = "chat-cleared"
	EventUserDisconnected = "user-disconnected"
	EventSync             = "sync"
	EventError            = "error"
)

// Decoding errors.
var (
	ErrUnknownEvent     = errors.New("unknown event")
	ErrMalformedPayload = errors.New("malformed payload")
)

// Envelope is the frame exchanged over the websocket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound is an event emitted by the Router.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// UserPayload is carried by user-connected and user-disconnected.
type UserPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SeenPayload is carried by message-seen.
type SeenPayload struct {
	MessageID     chat.MessageID `json:"messageId"`
	Username      string         `json:"username"`
	SeenTimestamp time.Time      `json:"seenTimestamp"`
}

// SyncPayload is sent to a connection right after it opens.
type SyncPayload struct {
	ConnectionID string         `json:"connectionId"`
	Messages     []chat.Message `json:"messages"`
	Online       []chat.User    `json:"online"`
}

// ErrorPayload is sent to a connection whose frame was rejected.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Inbound is one event entering the Router. The concrete type selects the handler.
type Inbound interface {
	Origin() string
}

// Connect is raised by the transport when a connection opens.
type Connect struct{ ConnID string }

// Disconnect is raised by the transport when a connection closes.
type Disconnect struct{ ConnID string }

// Identify names the user behind a connection.
type Identify struct {
	ConnID string
	Name   string
}

// SendMessage appends a message to the log.
type SendMessage struct {
	ConnID  string
	Message chat.Message
}

// SendReply appends a reply to the log.
type SendReply struct {
	ConnID  string
	Message chat.Message
}

// Typing relays a typing indicator verbatim.
type Typing struct {
	ConnID string
	Data   json.RawMessage
}

// MarkSeen is a read receipt.
type MarkSeen struct {
	ConnID    string
	MessageID chat.MessageID
	Reader    string
}

// ClearChat empties the log.
type ClearChat struct{ ConnID string }

func (e Connect) Origin() string     { return e.ConnID }
func (e Disconnect) Origin() string  { return e.ConnID }
func (e Identify) Origin() string    { return e.ConnID }
func (e SendMessage) Origin() string { return e.ConnID }
func (e SendReply) Origin() string   { return e.ConnID }
func (e Typing) Origin() string      { return e.ConnID }
func (e MarkSeen) Origin() string    { return e.ConnID }
func (e ClearChat) Origin() string   { return e.ConnID }

type markSeenData struct {
	MessageID *chat.MessageID `json:"messageId"`
	Username  string          `json:"username"`
}

// DecodeInbound parses a websocket frame from connID into its tagged event.
// Frames whose payload does not match the schema of their event kind are
// rejected with ErrMalformedPayload; unknown kinds with ErrUnknownEvent.
func DecodeInbound(connID string, frame []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	switch env.Event {
	case EventIdentify, EventNewUser:
		var name string
		if err := decodeData(env, &name); err != nil {
			return nil, err
		}
		return Identify{ConnID: connID, Name: name}, nil

	case EventSendMessage:
		msg, err := decodeMessage(env)
		if err != nil {
			return nil, err
		}
		return SendMessage{ConnID: connID, Message: msg}, nil

	case EventSendReply:
		msg, err := decodeMessage(env)
		if err != nil {
			return nil, err
		}
		if msg.ReplyTo == nil {
			return nil, fmt.Errorf("%w: %s requires replyTo", ErrMalformedPayload, env.Event)
		}
		return SendReply{ConnID: connID, Message: msg}, nil

	case EventTyping:
		data := env.Data
		if len(data) == 0 {
			data = json.RawMessage("null")
		}
		return Typing{ConnID: connID, Data: data}, nil

	case EventMarkSeen:
		var data markSeenData
		if err := decodeData(env, &data); err != nil {
			return nil, err
		}
		if data.MessageID == nil {
			return nil, fmt.Errorf("%w: %s requires messageId", ErrMalformedPayload, env.Event)
		}
		return MarkSeen{ConnID: connID, MessageID: *data.MessageID, Reader: data.Username}, nil

	case EventClearChat:
		return ClearChat{ConnID: connID}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
}

func decodeData(env Envelope, v any) error {
	if len(env.Data) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return fmt.Errorf("%w: %s requires data", ErrMalformedPayload, env.Event)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, env.Event, err)
	}
	return nil
}

func decodeMessage(env Envelope) (chat.Message, error) {
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || data[0] != '{' {
		return chat.Message{}, fmt.Errorf("%w: %s requires an object", ErrMalformedPayload, env.Event)
	}
	var msg chat.Message
	if err := decodeData(env, &msg); err != nil {
		return chat.Message{}, err
	}
	return msg, nil
}
