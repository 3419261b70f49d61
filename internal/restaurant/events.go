package restaurant

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced  = "OrderPlaced"
	EventOrderUpdated = "OrderUpdated"
	EventOrderDeleted = "OrderDeleted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID int64           `json:"order_id"`
	UserID  int64           `json:"user_id"`
	Items   int             `json:"items"`
	Total   decimal.Decimal `json:"total"`
}

// OrderUpdatedPayload carries the state after the change and the previous crew,
// so consumers can tell an assignment from a status flip.
type OrderUpdatedPayload struct {
	OrderID          int64  `json:"order_id"`
	UserID           int64  `json:"user_id"`
	DeliveryCrew     *int64 `json:"delivery_crew"`
	PrevDeliveryCrew *int64 `json:"prev_delivery_crew"`
	Status           Status `json:"status"`
	PrevStatus       Status `json:"prev_status"`
	UpdatedBy        int64  `json:"updated_by"`
}

type OrderDeletedPayload struct {
	OrderID   int64 `json:"order_id"`
	UserID    int64 `json:"user_id"`
	DeletedBy int64 `json:"deleted_by"`
}

func UpdatedPayload(before, after Order, by int64) OrderUpdatedPayload {
	return OrderUpdatedPayload{
		OrderID:          after.ID,
		UserID:           after.UserID,
		DeliveryCrew:     after.DeliveryCrew,
		PrevDeliveryCrew: before.DeliveryCrew,
		Status:           after.Status,
		PrevStatus:       before.Status,
		UpdatedBy:        by,
	}
}
