package kafka

import (
	"context"
	"encoding/json"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

// EventPublisher publishes order events as envelopes keyed by order id.
type EventPublisher struct {
	Producer *Producer
	Service  string
}

func (e *EventPublisher) PublishOrderEvent(ctx context.Context, topic, eventType string, orderID int64, payload any) error {
	ev, err := NewEnvelope(e.Service, eventType, orderID, payload)
	if err != nil {
		return err
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return e.Producer.Publish(ctx, topic, restaurant.PartitionKey(orderID), b, Headers(ev)...)
}
