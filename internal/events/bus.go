package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	aqmevents "github.com/aquamarinepk/aqm/events"
)

const (
	// ResourcesTopic carries every change the back office applies through the API.
	ResourcesTopic = "backoffice.resources"

	// EventResourceChanged identifies a ResourceChangedEvent payload.
	EventResourceChanged = "resource.changed"

	ActionCreated          = "created"
	ActionDeleted          = "deleted"
	ActionUpdated          = "updated"
	ActionKitchensAssigned = "kitchens_assigned"
)

// ResourceChangedEvent tells interested panels that a collection changed.
type ResourceChangedEvent struct {
	EventType  string    `json:"event_type"`
	Resource   string    `json:"resource"`
	Action     string    `json:"action"`
	ResourceID string    `json:"resource_id,omitempty"`
	Count      int       `json:"count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewResourceChanged builds an event stamped with the current time.
func NewResourceChanged(resource, action, id string) ResourceChangedEvent {
	return ResourceChangedEvent{
		EventType:  EventResourceChanged,
		Resource:   resource,
		Action:     action,
		ResourceID: id,
		OccurredAt: time.Now().UTC(),
	}
}

// PublishChange encodes evt and publishes it on ResourcesTopic.
// A nil publisher is a no-op.
func PublishChange(ctx context.Context, publisher aqmevents.Publisher, evt ResourceChangedEvent) error {
	if publisher == nil {
		return nil
	}

	if evt.EventType == "" {
		evt.EventType = EventResourceChanged
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode resource event: %w", err)
	}

	return publisher.Publish(ctx, ResourcesTopic, data)
}

// DecodeChange parses a ResourceChangedEvent payload.
func DecodeChange(data []byte) (ResourceChangedEvent, error) {
	var evt ResourceChangedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return evt, fmt.Errorf("decode resource event: %w", err)
	}
	if evt.EventType != EventResourceChanged {
		return evt, fmt.Errorf("unexpected event type %q", evt.EventType)
	}
	return evt, nil
}

// Bus is an in-process publisher/subscriber. Handlers run synchronously on
// the publishing goroutine in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]aqmevents.HandlerFunc
	logger   aqm.Logger
}

// NewBus creates an empty bus.
func NewBus(logger aqm.Logger) *Bus {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Bus{
		handlers: make(map[string][]aqmevents.HandlerFunc),
		logger:   logger,
	}
}

// Subscribe registers handler for topic.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler aqmevents.HandlerFunc) error {
	if handler == nil {
		return fmt.Errorf("nil handler for topic %s", topic)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

// Publish delivers msg to every handler of topic. Handler failures are
// logged and do not stop delivery; the first one is returned.
func (b *Bus) Publish(ctx context.Context, topic string, msg []byte) error {
	b.mu.RLock()
	handlers := make([]aqmevents.HandlerFunc, len(b.handlers[topic]))
	copy(handlers, b.handlers[topic])
	b.mu.RUnlock()

	var first error
	for _, handler := range handlers {
		if err := handler(ctx, msg); err != nil {
			b.logger.Error("event handler failed", "topic", topic, "error", err)
			if first == nil {
				first = err
			}
		}
	}

	return first
}
