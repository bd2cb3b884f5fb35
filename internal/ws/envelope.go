package ws

import (
	"encoding/json"
	"fmt"
)

// Gateway-level event names. Business events live in the events package.
const (
	EventAuthenticate   = "authenticate"
	EventOnlineUsers    = "updateOnlineUsers"
	EventError          = "error"
	EventConnectError   = "connect_error"
	EventReauthenticate = "reauthenticate"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrorPayload is the body of every error event.
type ErrorPayload struct {
	Error string `json:"error"`
}

// Encode builds one outbound frame.
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
