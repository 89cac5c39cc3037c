// Package chat implements the order-scoped real-time messaging subsystem:
// one WebSocket connection per client, multiplexed into one logical room
// per order.
package chat

import (
	"encoding/json"

	"github.com/swiftserve/swiftserve-chat-api/models"
)

// Event names from client to server
const (
	EventJoinOrder   = "join_order"
	EventMessageSend = "message:send"
	EventTypingStart = "typing:start"
	EventTypingStop  = "typing:stop"
	EventMessageSeen = "message:seen"
)

// Event names from server to room
const (
	EventSystem     = "system"
	EventMessageNew = "message:new"
	EventTyping     = "typing"
	EventSeenUpdate = "message:seen:update"
	EventError      = "error"
)

// Error codes carried by the error event
const (
	ErrorCodeUnauthorized   = "unauthorized"
	ErrorCodeForbidden      = "forbidden"
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodePersistence    = "persistence_failure"
)

// Envelope wraps every frame on the wire. Data is decoded into the typed
// payload for the event before it reaches any business logic.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinOrderPayload is sent by a client to subscribe to an order's room.
type JoinOrderPayload struct {
	OrderID uint `json:"order_id"`
}

// MediaRef is the reference an external upload service handed to the client.
type MediaRef struct {
	URL      string `json:"url"`
	MimeHint string `json:"mime_hint,omitempty"`
}

// SendPayload is sent by a client to post a message to an order's room.
type SendPayload struct {
	OrderID     uint      `json:"order_id"`
	Kind        string    `json:"kind,omitempty"` // defaults to "text"
	Text        string    `json:"text,omitempty"`
	Media       *MediaRef `json:"media,omitempty"`
	ReceiverID  *uint     `json:"receiver_id,omitempty"`
	ClientMsgID string    `json:"client_msg_id,omitempty"`
}

// TypingPayload is sent by a client on typing start/stop.
type TypingPayload struct {
	OrderID uint `json:"order_id"`
}

// SeenPayload is sent by a client to acknowledge messages as seen.
type SeenPayload struct {
	OrderID    uint     `json:"order_id"`
	MessageIDs []string `json:"message_ids"`
}

// SystemPayload acknowledges a join to the room.
type SystemPayload struct {
	OrderID uint   `json:"order_id"`
	UserID  uint   `json:"user_id"`
	Text    string `json:"text"`
}

// MessageNewPayload carries the persisted message plus the echoed
// correlation token the sender attached. The server never deduplicates on
// client_msg_id, it only echoes it back.
type MessageNewPayload struct {
	Message     *models.Message `json:"message"`
	ClientMsgID string          `json:"client_msg_id,omitempty"`
}

// TypingEventPayload relays a typing signal to the other room members.
type TypingEventPayload struct {
	OrderID  uint `json:"order_id"`
	UserID   uint `json:"user_id"`
	IsTyping bool `json:"is_typing"`
}

// SeenUpdatePayload tells room members which messages a user has seen.
type SeenUpdatePayload struct {
	OrderID    uint     `json:"order_id"`
	UserID     uint     `json:"user_id"`
	MessageIDs []string `json:"message_ids"`
}

// ErrorPayload reports an event-scoped failure back to the initiating
// session only.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// marshalEvent encodes an event and its payload into a single wire frame.
func marshalEvent(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
