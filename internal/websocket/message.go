package websocket

import (
	"encoding/json"
	"fmt"
)

// Actions exchanged over the chat socket.
const (
	ActionChat         = "chat"
	ActionChatResponse = "chat_response"
	ActionError        = "error"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ChatPayload is the payload of a chat action.
type ChatPayload struct {
	Prompt string `json:"prompt"`
}

// ChatResponsePayload is the payload of a chat_response action.
type ChatResponsePayload struct {
	Response string `json:"response"`
}

// ErrorPayload is the payload of an error action.
type ErrorPayload struct {
	Message string `json:"message"`
}

// NewChatResponseMessage encodes a chat_response message.
func NewChatResponseMessage(response string) ([]byte, error) {
	return encode(ActionChatResponse, ChatResponsePayload{Response: response})
}

// NewErrorMessage encodes an error message.
func NewErrorMessage(msg string) ([]byte, error) {
	return encode(ActionError, ErrorPayload{Message: msg})
}

func encode(action string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", action, err)
	}
	out, err := json.Marshal(Message{Action: action, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", action, err)
	}
	return out, nil
}
