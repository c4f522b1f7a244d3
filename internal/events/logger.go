package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/OldStager01/pool-occupancy/internal/logger"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

// ReadingSink stores collected readings.
type ReadingSink interface {
	InsertBatch(ctx context.Context, weekID string, readings []models.OccupancyReading) error
}

// EventLogger writes every event to the structured log and persists collected
// readings. A nil sink only logs.
type EventLogger struct {
	sink         ReadingSink
	eventChan    <-chan *models.Event
	writeTimeout time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

func NewEventLogger(sink ReadingSink, eventChan <-chan *models.Event) *EventLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventLogger{
		sink:         sink,
		eventChan:    eventChan,
		writeTimeout: 30 * time.Second,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (l *EventLogger) Start() {
	l.wg.Add(1)
	go l.run()
}

// Stop cancels pending writes and waits for the loop to exit.
func (l *EventLogger) Stop() {
	l.cancel()
	l.wg.Wait()
}

func (l *EventLogger) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.ctx.Done():
			return
		case event, ok := <-l.eventChan:
			if !ok {
				return
			}
			l.processEvent(event)
		}
	}
}

func (l *EventLogger) processEvent(event *models.Event) {
	// Log to structured logger
	entry := logger.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"week_id":    event.WeekID,
		"severity":   event.Severity,
		"trace_id":   event.TraceID,
	})

	switch event.Severity {
	case models.SeverityCritical:
		entry.Error(event.Message)
	case models.SeverityWarning:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}

	if event.Type == models.EventTypeReadingsCollected {
		l.persistReadings(event)
	}
}

func (l *EventLogger) persistReadings(event *models.Event) {
	batch, ok := event.Data.(*models.ReadingBatch)
	if !ok || l.sink == nil || len(batch.Readings) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(l.ctx, l.writeTimeout)
	defer cancel()

	if err := l.sink.InsertBatch(ctx, batch.WeekID, batch.Readings); err != nil {
		logger.WithWeek(batch.WeekID).Errorf("Failed to persist readings: %v", err)
	}
}

func (l *EventLogger) LogToJSON(event *models.Event) string {
	data, _ := json.Marshal(event)
	return string(data)
}
