package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// UserJoinedEvent is emitted when a connection identifies.
// Online is the number of online users right after the join and Revision
// orders it against every other join and leave.
type UserJoinedEvent struct {
	ConnectionID string    `json:"connection_id"`
	Name         string    `json:"name"`
	Online       int       `json:"online"`
	Revision     uint64    `json:"revision"`
	Timestamp    time.Time `json:"timestamp"`
}

// UserLeftEvent is emitted when an identified connection closes.
type UserLeftEvent struct {
	ConnectionID string    `json:"connection_id"`
	Name         string    `json:"name"`
	Online       int       `json:"online"`
	Revision     uint64    `json:"revision"`
	Timestamp    time.Time `json:"timestamp"`
}

// MessagePostedEvent is emitted for every message or reply appended to the log.
type MessagePostedEvent struct {
	MessageID string    `json:"message_id"`
	Sender    string    `json:"sender"`
	Reply     bool      `json:"reply"`
	Timestamp time.Time `json:"timestamp"`
}

// ReceiptRecordedEvent is emitted for every mark-seen, matched or not.
type ReceiptRecordedEvent struct {
	MessageID string    `json:"message_id"`
	Reader    string    `json:"reader"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatClearedEvent is emitted when the log is emptied.
type ChatClearedEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the relay domain.
var (
	UserJoinedV1 = helper.EventDefinition[UserJoinedEvent](
		"relay",
		"UserJoined",
		"v1",
	)

	UserLeftV1 = helper.EventDefinition[UserLeftEvent](
		"relay",
		"UserLeft",
		"v1",
	)

	MessagePostedV1 = helper.EventDefinition[MessagePostedEvent](
		"relay",
		"MessagePosted",
		"v1",
	)

	ReceiptRecordedV1 = helper.EventDefinition[ReceiptRecordedEvent](
		"relay",
		"ReceiptRecorded",
		"v1",
	)

	ChatClearedV1 = helper.EventDefinition[ChatClearedEvent](
		"relay",
		"ChatCleared",
		"v1",
	)
)
