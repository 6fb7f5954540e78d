package adapters

import (
	"context"
	"sync"

	"github.com/alchemorsel/mealprep/internal/domain/shared"
	"github.com/alchemorsel/mealprep/internal/infrastructure/monitoring"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"go.uber.org/zap"
)

// AllEvents registers a handler for every event name
const AllEvents = "*"

// EventHandler handles one domain event
type EventHandler func(ctx context.Context, event shared.DomainEvent) error

// EventDispatcher delivers domain events to in-process handlers
type EventDispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
	log      *zap.Logger
}

// NewEventDispatcher creates a new event dispatcher
func NewEventDispatcher(log *zap.Logger) *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[string][]EventHandler),
		log:      log.Named("events"),
	}
}

var _ outbound.EventPublisher = (*EventDispatcher)(nil)

// Register registers an event handler
func (d *EventDispatcher) Register(event string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[event] = append(d.handlers[event], handler)
	d.log.Debug("Registered event handler", zap.String("event", event))
}

// Publish hands each event to its handlers in order. A failing handler is
// logged and the remaining handlers still run.
func (d *EventDispatcher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		d.mu.RLock()
		handlers := append(append([]EventHandler(nil), d.handlers[event.EventName()]...), d.handlers[AllEvents]...)
		d.mu.RUnlock()

		if len(handlers) == 0 {
			d.log.Debug("No handlers registered for event", zap.String("event", event.EventName()))
			continue
		}
		for _, handler := range handlers {
			if err := handler(ctx, event); err != nil {
				monitoring.RecordError(ctx, err)
				d.log.Error("Failed to handle event",
					zap.String("event", event.EventName()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// LogEvents returns a handler that logs every event it receives
func LogEvents(log *zap.Logger) EventHandler {
	return func(ctx context.Context, event shared.DomainEvent) error {
		log.Info("Domain event",
			zap.String("event", event.EventName()),
			zap.Time("occurred_at", event.OccurredAt()),
			zap.String("trace_id", monitoring.TraceIDFromContext(ctx)),
		)
		return nil
	}
}
