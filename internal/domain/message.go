package domain

import (
	"encoding/json"
	"fmt"
)

// MessageType discriminates socket protocol messages.
type MessageType string

const (
	MessageTypeJoinRoom  MessageType = "join_room"
	MessageTypeLeaveRoom MessageType = "leave_room"
	MessageTypeChat      MessageType = "chat"   // create a shape
	MessageTypeUpdate    MessageType = "update" // commit moved shape geometry
	MessageTypeDelete    MessageType = "delete"
)

// Inbound is a client-to-relay message. Every message names its room; the
// shape and shapeId fields are required per type.
type Inbound struct {
	Type    MessageType     `json:"type"`
	RoomID  int64           `json:"roomId"`
	Shape   json.RawMessage `json:"shape,omitempty"`
	ShapeID int64           `json:"shapeId,omitempty"`
}

// ParseInbound decodes and validates a raw inbound frame. A non-numeric
// roomId or missing required field is a ValidationError; the relay drops
// the message and keeps the connection.
func ParseInbound(data []byte) (*Inbound, error) {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, &ValidationError{Reason: "invalid message: " + err.Error()}
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Validate checks the per-type required fields.
func (m *Inbound) Validate() error {
	if m.RoomID <= 0 {
		return &ValidationError{Reason: "roomId must be a positive number"}
	}
	switch m.Type {
	case MessageTypeJoinRoom, MessageTypeLeaveRoom:
		return nil
	case MessageTypeChat:
		if len(m.Shape) == 0 {
			return &ValidationError{Reason: "chat message requires a shape"}
		}
	case MessageTypeUpdate:
		if len(m.Shape) == 0 {
			return &ValidationError{Reason: "update message requires a shape"}
		}
		if m.ShapeID <= 0 {
			return &ValidationError{Reason: "update message requires a shapeId"}
		}
	case MessageTypeDelete:
		if m.ShapeID <= 0 {
			return &ValidationError{Reason: "delete message requires a shapeId"}
		}
	default:
		return &ValidationError{Reason: fmt.Sprintf("unknown message type %q", m.Type)}
	}
	return nil
}

// Outbound is a relay-to-client broadcast. Delete broadcasts carry only the
// shapeId; chat and update carry the committed shape with its durable id.
type Outbound struct {
	Type    MessageType     `json:"type"`
	Shape   json.RawMessage `json:"shape,omitempty"`
	ShapeID int64           `json:"shapeId,omitempty"`
	RoomID  int64           `json:"roomId,omitempty"`
}
