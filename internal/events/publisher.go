package events

import (
	"fmt"
	"time"

	"github.com/OldStager01/pool-occupancy/pkg/models"
)

type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) ReadingsCollected(weekID string, readings []models.OccupancyReading) {
	msg := fmt.Sprintf("Collected %d readings", len(readings))
	event := models.NewEvent(models.EventTypeReadingsCollected, weekID, msg).
		WithData(&models.ReadingBatch{
			WeekID:      weekID,
			CollectedAt: time.Now().UTC(),
			Readings:    readings,
		})
	p.publish(event)
}

// ReadingsRejected is a warning: rejected readings point at a faulty sensor or feed.
func (p *Publisher) ReadingsRejected(weekID string, rejected []models.RejectedReading) {
	if len(rejected) == 0 {
		return
	}
	msg := fmt.Sprintf("Rejected %d readings", len(rejected))
	event := models.NewEvent(models.EventTypeReadingsRejected, weekID, msg).
		WithSeverity(models.SeverityWarning).
		WithData(rejected)
	p.publish(event)
}

func (p *Publisher) SummaryRefreshed(summary *models.WeekSummary) {
	msg := fmt.Sprintf("Summary refreshed: %d slots", len(summary.Summaries))
	event := models.NewEvent(models.EventTypeSummaryRefreshed, summary.WeekID, msg).
		WithData(summary)
	p.publish(event)
}

func (p *Publisher) Alert(weekID string, severity models.EventSeverity, message string, data interface{}) {
	event := models.NewEvent(models.EventTypeAlert, weekID, message).
		WithSeverity(severity).
		WithData(data)
	p.publish(event)
}

func (p *Publisher) Error(weekID string, message string, err error) {
	event := models.NewEvent(models.EventTypeError, weekID, message).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}
