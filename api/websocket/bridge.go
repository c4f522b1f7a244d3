package websocket

import (
	"context"
	"sync"

	"github.com/OldStager01/pool-occupancy/internal/logger"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

// EventBridge forwards pipeline events to the WebSocket clients of their week.
type EventBridge struct {
	hub        *Hub
	eventsChan <-chan *models.Event
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewEventBridge(hub *Hub, eventsChan <-chan *models.Event) *EventBridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventBridge{
		hub:        hub,
		eventsChan: eventsChan,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (b *EventBridge) Start() {
	b.wg.Add(1)
	go b.run()
	logger.Info("WebSocket event bridge started")
}

func (b *EventBridge) Stop() {
	b.cancel()
	b.wg.Wait()
	logger.Info("WebSocket event bridge stopped")
}

func (b *EventBridge) run() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.eventsChan:
			if !ok {
				logger.Info("Event channel closed, stopping bridge")
				return
			}
			b.forwardEvent(event)
		}
	}
}

func (b *EventBridge) forwardEvent(event *models.Event) {
	msg := convertToWSMessage(event)
	if msg == nil {
		return
	}

	data := msg.JSON()
	if data == nil {
		return
	}

	if event.WeekID == "" {
		b.hub.Broadcast(data)
		return
	}
	b.hub.BroadcastToWeek(event.WeekID, data)
}

func convertToWSMessage(event *models.Event) *OutgoingMessage {
	msgType := mapEventType(event.Type)
	if msgType == "" {
		return nil
	}

	msg := NewMessage(msgType, event.WeekID, event.Data)
	msg.Timestamp = event.Timestamp
	msg.Severity = string(event.Severity)
	msg.Message = event.Message
	return msg
}

// mapEventType returns "" for events clients do not see. Raw reading batches stay
// internal; clients receive the summary they produce instead.
func mapEventType(eventType models.EventType) MessageType {
	switch eventType {
	case models.EventTypeSummaryRefreshed:
		return MessageTypeSummary
	case models.EventTypeReadingsRejected:
		return MessageTypeRejected
	case models.EventTypeAlert:
		return MessageTypeAlert
	case models.EventTypeError:
		return MessageTypeError
	default:
		return ""
	}
}
