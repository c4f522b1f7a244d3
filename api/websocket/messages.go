package websocket

import (
	"encoding/json"
	"time"

	"github.com/OldStager01/pool-occupancy/internal/logger"
)

type MessageType string

const (
	MessageTypeSummary      MessageType = "summary"
	MessageTypeRejected     MessageType = "readings_rejected"
	MessageTypeAlert        MessageType = "alert"
	MessageTypeError        MessageType = "error"
	MessageTypeSubscription MessageType = "subscription_update"
	MessageTypePong         MessageType = "pong"
)

type OutgoingMessage struct {
	Type      MessageType `json:"type"`
	WeekID    string      `json:"week_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Severity  string      `json:"severity,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func NewMessage(msgType MessageType, weekID string, data interface{}) *OutgoingMessage {
	return &OutgoingMessage{
		Type:      msgType,
		WeekID:    weekID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// JSON returns nil when the payload cannot be encoded.
func (m *OutgoingMessage) JSON() []byte {
	data, err := json.Marshal(m)
	if err != nil {
		logger.Errorf("Failed to marshal %s message: %v", m.Type, err)
		return nil
	}
	return data
}

type SubscriptionData struct {
	Action string `json:"action"`
}

func NewSubscriptionMessage(action, weekID string) *OutgoingMessage {
	return NewMessage(MessageTypeSubscription, weekID, SubscriptionData{Action: action})
}

type ErrorData struct {
	Message string `json:"message"`
}
