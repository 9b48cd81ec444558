package events

import (
	"context"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	aqmevents "github.com/aquamarinepk/aqm/events"
)

// AuditSubscriber writes one structured log line per resource change.
type AuditSubscriber struct {
	source aqmevents.Subscriber
	logger aqm.Logger
}

// NewAuditSubscriber creates an audit subscriber reading from source.
func NewAuditSubscriber(source aqmevents.Subscriber, logger aqm.Logger) *AuditSubscriber {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &AuditSubscriber{source: source, logger: logger}
}

// Start subscribes to the resources topic.
func (a *AuditSubscriber) Start(ctx context.Context) error {
	if a.source == nil {
		return nil
	}
	if err := a.source.Subscribe(ctx, ResourcesTopic, a.handle); err != nil {
		return fmt.Errorf("failed to subscribe audit to %s: %w", ResourcesTopic, err)
	}
	return nil
}

// Stop is a no-op for lifecycle compatibility.
func (a *AuditSubscriber) Stop(ctx context.Context) error {
	return nil
}

func (a *AuditSubscriber) handle(ctx context.Context, msg []byte) error {
	evt, err := DecodeChange(msg)
	if err != nil {
		a.logger.Error("failed to decode audit event", "error", err)
		return nil
	}

	a.logger.Info("audit",
		"resource", evt.Resource,
		"action", evt.Action,
		"resource_id", evt.ResourceID,
		"count", evt.Count,
		"timestamp", evt.OccurredAt.Format(time.RFC3339),
	)
	return nil
}
