package kafka

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	ev, err := NewEnvelope("little-lemon-api", restaurant.EventOrderPlaced, 42, restaurant.OrderPlacedPayload{
		OrderID: 42, UserID: 7, Items: 2, Total: decimal.RequireFromString("25.00"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "42", ev.CorrelationID)

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	got, err := UnmarshalEnvelope(b)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, got.EventID)

	p, err := UnwrapPayload[restaurant.OrderPlacedPayload](got.Payload)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.UserID)
	assert.True(t, p.Total.Equal(decimal.NewFromInt(25)))

	h := Headers(ev)
	require.Len(t, h, 2)
	assert.Equal(t, restaurant.EventOrderPlaced, string(h[0].Value))
	assert.Equal(t, "1", string(h[1].Value))
}

func TestUnmarshalEnvelope_Rejects(t *testing.T) {
	_, err := UnmarshalEnvelope([]byte(`not json`))
	assert.Error(t, err)
	_, err = UnmarshalEnvelope([]byte(`{"event_type":"OrderPlaced"}`))
	assert.Error(t, err)
}
