package websocket

import "encoding/json"

const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

// Message is the outbound envelope. Payloads are the typed event structs from
// the game package.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// InboundMessage defers payload decoding until the type is known.
type InboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type CreatePayload struct {
	GuestID    string `json:"guest_id"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Rounds     int    `json:"rounds"`
}

type AcceptPayload struct {
	SessionID string `json:"session_id"`
}

type DeclinePayload struct {
	SessionID string `json:"session_id"`
}

type AnswerPayload struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

type LeavePayload struct {
	SessionID string `json:"session_id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
