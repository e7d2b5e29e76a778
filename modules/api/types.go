package api

import (
	"github.com/example/relay-chat/domain/chat"
)

// MessagesResponse is the API response for the message log.
type MessagesResponse struct {
	Messages []chat.Message `json:"messages"`
	Count    int            `json:"count"`
}

// PresenceResponse is the API response for the online users.
type PresenceResponse struct {
	Online []chat.User `json:"online"`
	Count  int         `json:"count"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
