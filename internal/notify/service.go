package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/little-lemon-api/internal/kafka"
	"github.com/ariefcatur/little-lemon-api/internal/redisx"
	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

type Pusher interface {
	Push(ctx context.Context, userID int64, n restaurant.Notification) error
}

// Delivery is one notification addressed to one user.
type Delivery struct {
	UserID       int64
	Notification restaurant.Notification
}

// Service turns order events into per-user notifications. Redis is used for
// event dedup and may be nil in tests.
type Service struct {
	Redis       *redis.Client
	Inbox       Pusher
	ServiceName string
	Log         *slog.Logger
}

// HandleOrderEvent is installed as the consumer handler. Events that cannot be
// decoded are logged and skipped so they do not block the partition.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		s.Log.Warn("skip undecodable event", "topic", m.Topic, "offset", m.Offset, "error", err)
		return nil
	}
	out, err := Build(env)
	if err != nil {
		s.Log.Warn("skip event", "event_id", env.EventID, "event_type", env.EventType, "error", err)
		return nil
	}
	if len(out) == 0 {
		return nil
	}

	if s.Redis != nil {
		seen, err := redisx.Seen(ctx, s.Redis, s.ServiceName, env.EventID)
		if err != nil {
			return fmt.Errorf("dedup %s: %w", env.EventID, err)
		}
		if seen {
			return nil
		}
	}
	for _, d := range out {
		if err := s.Inbox.Push(ctx, d.UserID, d.Notification); err != nil {
			if s.Redis != nil {
				// Forget must land even when ctx is ending, or the retry after restart is skipped.
				_ = redisx.Forget(context.WithoutCancel(ctx), s.Redis, s.ServiceName, env.EventID)
			}
			return fmt.Errorf("push notification for user %d: %w", d.UserID, err)
		}
	}
	s.Log.Info("notified", "event_id", env.EventID, "event_type", env.EventType, "recipients", len(out))
	return nil
}

// Build maps an event to its recipients: the customer hears about every
// change to their order, and a newly assigned crew member hears about the
// assignment.
func Build(env restaurant.Envelope) ([]Delivery, error) {
	note := func(userID, orderID int64, format string, args ...any) Delivery {
		return Delivery{UserID: userID, Notification: restaurant.Notification{
			EventID: env.EventID,
			OrderID: orderID,
			Event:   env.EventType,
			Message: fmt.Sprintf(format, args...),
			At:      env.OccurredAt,
		}}
	}

	switch env.EventType {
	case restaurant.EventOrderPlaced:
		p, err := kafkax.UnwrapPayload[restaurant.OrderPlacedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		return []Delivery{
			note(p.UserID, p.OrderID, "Order #%d placed, total %s", p.OrderID, p.Total.StringFixed(2)),
		}, nil

	case restaurant.EventOrderUpdated:
		p, err := kafkax.UnwrapPayload[restaurant.OrderUpdatedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		var out []Delivery
		if p.DeliveryCrew != nil && !sameCrew(p.DeliveryCrew, p.PrevDeliveryCrew) {
			out = append(out,
				note(*p.DeliveryCrew, p.OrderID, "You have been assigned order #%d", p.OrderID),
				note(p.UserID, p.OrderID, "Order #%d has been assigned to a delivery crew", p.OrderID),
			)
		}
		if p.Status == restaurant.StatusDelivered && p.PrevStatus != restaurant.StatusDelivered {
			out = append(out, note(p.UserID, p.OrderID, "Order #%d has been delivered", p.OrderID))
		}
		return out, nil

	case restaurant.EventOrderDeleted:
		p, err := kafkax.UnwrapPayload[restaurant.OrderDeletedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		return []Delivery{note(p.UserID, p.OrderID, "Order #%d has been cancelled", p.OrderID)}, nil
	}
	return nil, nil
}

func sameCrew(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
