package events

import (
	"sync"
	"sync/atomic"

	"github.com/OldStager01/pool-occupancy/internal/logger"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

type subscription struct {
	ch    chan *models.Event
	types map[models.EventType]bool // nil receives every type
}

func (s *subscription) wants(t models.EventType) bool {
	return s.types == nil || s.types[t]
}

// EventBus fans events out to buffered subscriber channels.
type EventBus struct {
	subs       []*subscription
	mu         sync.RWMutex
	bufferSize int
	closed     bool
	dropped    atomic.Uint64
}

func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &EventBus{bufferSize: bufferSize}
}

// Subscribe returns a channel receiving events of the given types.
func (b *EventBus) Subscribe(types ...models.EventType) <-chan *models.Event {
	filter := make(map[models.EventType]bool, len(types))
	for _, t := range types {
		filter[t] = true
	}
	return b.subscribe(filter)
}

func (b *EventBus) SubscribeAll() <-chan *models.Event {
	return b.subscribe(nil)
}

func (b *EventBus) subscribe(types map[models.EventType]bool) <-chan *models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *models.Event, b.bufferSize)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, &subscription{ch: ch, types: types})
	return ch
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (b *EventBus) Unsubscribe(ch <-chan *models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.ch == ch {
			close(s.ch)
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish never blocks; a subscriber whose buffer is full misses the event.
func (b *EventBus) Publish(event *models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, s := range b.subs {
		if !s.wants(event.Type) {
			continue
		}
		select {
		case s.ch <- event:
		default:
			b.dropped.Add(1)
			logger.WithWeek(event.WeekID).Warnf("Event channel full, dropping event: %s", event.Type)
		}
	}
}

// Dropped counts deliveries skipped because a subscriber was full.
func (b *EventBus) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
}
