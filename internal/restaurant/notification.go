package restaurant

import "time"

// Notification is one entry of a user's inbox, derived from an order event.
type Notification struct {
	EventID string    `json:"event_id"`
	OrderID int64     `json:"order_id"`
	Event   string    `json:"event"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}
