// internal/handler/event_bus.go
package handler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventBus fans print-job outcomes out to websocket subscribers. It must
// never block a print request: full buffers drop events instead.
type EventBus struct {
	subscribers map[chan JobEvent]struct{}
	events      chan JobEvent
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// JobEvent describes one finished print job.
type JobEvent struct {
	Type      string    `json:"type"`
	Printer   string    `json:"printer"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[chan JobEvent]struct{}),
		events:      make(chan JobEvent, 256),
		logger:      logger,
	}
}

// Start runs the distribution loop until the bus is closed.
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distribute(event)
	}
}

// PublishJobResult publishes a job outcome.
func (eb *EventBus) PublishJobResult(printer string, success bool, errMsg string) {
	event := JobEvent{
		Type:      "job_result",
		Printer:   printer,
		Success:   success,
		Error:     errMsg,
		Timestamp: time.Now(),
	}

	select {
	case eb.events <- event:
	default:
		if eb.logger != nil {
			eb.logger.Warn("Event bus full, dropping event", zap.String("printer", printer))
		}
	}
}

// Subscribe registers a new subscriber channel.
func (eb *EventBus) Subscribe() chan JobEvent {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan JobEvent, 32)
	eb.subscribers[subscriber] = struct{}{}
	return subscriber
}

// Unsubscribe removes a subscriber and closes its channel.
func (eb *EventBus) Unsubscribe(subscriber chan JobEvent) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if _, ok := eb.subscribers[subscriber]; ok {
		delete(eb.subscribers, subscriber)
		close(subscriber)
	}
}

func (eb *EventBus) distribute(event JobEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	for subscriber := range eb.subscribers {
		select {
		case subscriber <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
