package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

const envelopeVersion = 1

// NewEnvelope wraps payload with a fresh event id; the order id is the correlation id.
func NewEnvelope(producer, eventType string, orderID int64, payload any) (restaurant.Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return restaurant.Envelope{}, fmt.Errorf("encode payload: %w", err)
	}
	return restaurant.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  envelopeVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: strconv.FormatInt(orderID, 10),
		Payload:       raw,
	}, nil
}

func Headers(ev restaurant.Envelope) []kafka.Header {
	return []kafka.Header{
		{Key: "x-event-type", Value: []byte(ev.EventType)},
		{Key: "x-event-version", Value: []byte(strconv.Itoa(ev.EventVersion))},
	}
}

func UnmarshalEnvelope(b []byte) (restaurant.Envelope, error) {
	var ev restaurant.Envelope
	if err := json.Unmarshal(b, &ev); err != nil {
		return ev, fmt.Errorf("decode envelope: %w", err)
	}
	if ev.EventID == "" || ev.EventType == "" {
		return ev, fmt.Errorf("decode envelope: missing event id or type")
	}
	return ev, nil
}

// UnwrapPayload decodes the payload of an envelope into T.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
