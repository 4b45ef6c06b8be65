// Package messaging delivers committed domain events to in-process
// subscribers.
package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"questionnaire-builder/domain/events"
)

// AllEvents subscribes a handler to every event type.
const AllEvents = "*"

// EventHandler reacts to a single domain event.
type EventHandler func(ctx context.Context, event events.DomainEvent) error

// EventRecorder counts published events.
type EventRecorder interface {
	ObserveEvent(eventType string)
}

// EventDispatcher is an in-process EventPublisher. Handler failures are
// logged and reported but never undo the mutation that raised the event.
type EventDispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
	recorder EventRecorder
	logger   *zap.Logger
}

// NewEventDispatcher creates a dispatcher with no subscribers
func NewEventDispatcher(recorder EventRecorder, logger *zap.Logger) *EventDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventDispatcher{
		handlers: make(map[string][]EventHandler),
		recorder: recorder,
		logger:   logger,
	}
}

// Subscribe registers handler for eventType, or for every type with
// AllEvents.
func (d *EventDispatcher) Subscribe(eventType string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// Publish dispatches events in order
func (d *EventDispatcher) Publish(ctx context.Context, evts []events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}

	startTime := time.Now()
	failureCount := 0

	for _, event := range evts {
		if d.recorder != nil {
			d.recorder.ObserveEvent(event.GetEventType())
		}
		d.logger.Debug("Domain event",
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateID", event.GetAggregateID()),
			zap.Int("version", event.GetVersion()),
		)

		for _, handler := range d.handlersFor(event.GetEventType()) {
			if err := handler(ctx, event); err != nil {
				failureCount++
				d.logger.Warn("Failed to handle event",
					zap.String("eventType", event.GetEventType()),
					zap.String("aggregateID", event.GetAggregateID()),
					zap.Error(err))
			}
		}
	}

	d.logger.Debug("Events published",
		zap.Int("total", len(evts)),
		zap.Int("failed", failureCount),
		zap.Duration("duration", time.Since(startTime)))

	if failureCount > 0 {
		return fmt.Errorf("%d event handlers failed", failureCount)
	}
	return nil
}

func (d *EventDispatcher) handlersFor(eventType string) []EventHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]EventHandler, 0, len(d.handlers[eventType])+len(d.handlers[AllEvents]))
	out = append(out, d.handlers[eventType]...)
	out = append(out, d.handlers[AllEvents]...)
	return out
}
