package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/task-tracker/internal/domain"
	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeConnected   MessageType = "CONNECTED"
	MessageTypeTaskCreated MessageType = MessageType(domain.TaskCreated)
	MessageTypeTaskUpdated MessageType = MessageType(domain.TaskUpdated)
	MessageTypeTaskDeleted MessageType = MessageType(domain.TaskDeleted)
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

type ConnectedPayload struct {
	UserID string `json:"userId"`
}

type TaskDeletedPayload struct {
	ID uuid.UUID `json:"id"`
}

// messageForEvent builds the wire message for a task event.
func messageForEvent(event domain.TaskEvent) (*Message, error) {
	if event.Type == domain.TaskDeleted {
		return NewMessage(MessageTypeTaskDeleted, TaskDeletedPayload{ID: event.TaskID})
	}
	return NewMessage(MessageType(event.Type), event.Task)
}
