package restaurant

import (
	"context"
	"encoding/json"
	"time"
)

type OrderService struct {
	Store    Store
	Resolver *Resolver
	Now      func() time.Time
}

func NewOrderService(s Store, r *Resolver) *OrderService {
	return &OrderService{Store: s, Resolver: r}
}

// Optional distinguishes an absent JSON key from an explicit null.
type Optional[T any] struct {
	Set   bool
	Value T
}

func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: v} }

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	return json.Unmarshal(b, &o.Value)
}

type OrderUpdate struct {
	DeliveryCrew Optional[*int64] `json:"delivery_crew"`
	Status       Optional[Status] `json:"status"`
}

type OrderChange struct {
	Before Order
	After  Order
}

func (o *OrderService) List(ctx context.Context, caller Caller, q OrderQuery) (Page[Order], error) {
	if err := caller.RequireAuth(); err != nil {
		return Page[Order]{}, err
	}
	q.ListParams = q.Normalize()
	if _, _, err := q.OrderBy(OrderOrderingFields...); err != nil {
		return Page[Order]{}, err
	}

	self := caller.User.ID
	switch caller.Role {
	case RoleManager:
	case RoleDeliveryCrew:
		q.DeliveryCrew = &self
	default:
		q.UserID = &self
	}

	orders, n, err := o.Store.ListOrders(ctx, q)
	if err != nil {
		return Page[Order]{}, err
	}
	return NewPage(q.ListParams, orders, n), nil
}

// CanView applies the per-role visibility rule to an already loaded order.
func CanView(caller Caller, ord Order) error {
	if err := caller.RequireAuth(); err != nil {
		return err
	}
	switch caller.Role {
	case RoleManager:
		return nil
	case RoleDeliveryCrew:
		if ord.DeliveryCrew != nil && *ord.DeliveryCrew == caller.User.ID {
			return nil
		}
	default:
		if ord.UserID == caller.User.ID {
			return nil
		}
	}
	return Errorf(KindForbidden, "order %d is not visible to you", ord.ID)
}

func (o *OrderService) Get(ctx context.Context, caller Caller, id int64) (Order, error) {
	if err := caller.RequireAuth(); err != nil {
		return Order{}, err
	}
	ord, err := o.Store.OrderByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if err := CanView(caller, ord); err != nil {
		return Order{}, err
	}
	ord.Items, err = o.Store.OrderItems(ctx, id)
	if err != nil {
		return Order{}, err
	}
	return ord, nil
}

// Replace is the PUT form: manager only, both fields required.
func (o *OrderService) Replace(ctx context.Context, caller Caller, id int64, upd OrderUpdate) (OrderChange, error) {
	if err := caller.RequireManager(); err != nil {
		return OrderChange{}, err
	}
	if !upd.DeliveryCrew.Set || !upd.Status.Set {
		return OrderChange{}, Errorf(KindValidation, "delivery_crew and status are required")
	}
	return o.apply(ctx, id, upd, nil)
}

// Patch merges the supplied fields. Delivery crew may only move the status of
// orders assigned to them.
func (o *OrderService) Patch(ctx context.Context, caller Caller, id int64, upd OrderUpdate) (OrderChange, error) {
	if err := caller.RequireStaff(); err != nil {
		return OrderChange{}, err
	}
	if caller.Role == RoleManager {
		if !upd.DeliveryCrew.Set && !upd.Status.Set {
			return OrderChange{}, Errorf(KindValidation, "nothing to update")
		}
		return o.apply(ctx, id, upd, nil)
	}
	if upd.DeliveryCrew.Set {
		return OrderChange{}, Errorf(KindForbidden, "delivery crew may only change status")
	}
	if !upd.Status.Set {
		return OrderChange{}, Errorf(KindValidation, "status is required")
	}
	self := caller.User.ID
	return o.apply(ctx, id, upd, func(ord Order) error {
		if ord.DeliveryCrew == nil || *ord.DeliveryCrew != self {
			return Errorf(KindForbidden, "order %d is not assigned to you", ord.ID)
		}
		return nil
	})
}

func (o *OrderService) apply(ctx context.Context, id int64, upd OrderUpdate, guard func(Order) error) (OrderChange, error) {
	if upd.Status.Set && !upd.Status.Value.Valid() {
		return OrderChange{}, Errorf(KindValidation, "invalid status")
	}
	if upd.DeliveryCrew.Set && upd.DeliveryCrew.Value != nil {
		if err := o.requireCrewMember(ctx, *upd.DeliveryCrew.Value); err != nil {
			return OrderChange{}, err
		}
	}

	var change OrderChange
	err := o.Store.Atomic(ctx, func(tx Store) error {
		ord, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(ord); err != nil {
				return err
			}
		}
		next := ord
		if upd.DeliveryCrew.Set {
			next.DeliveryCrew = upd.DeliveryCrew.Value
		}
		if upd.Status.Set {
			next.Status = upd.Status.Value
		}
		if err := tx.UpdateOrder(ctx, id, next.DeliveryCrew, next.Status); err != nil {
			return err
		}
		change = OrderChange{Before: ord, After: next}
		return nil
	})
	return change, err
}

func (o *OrderService) requireCrewMember(ctx context.Context, userID int64) error {
	ok, err := o.Resolver.IsDeliveryCrew(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return Errorf(KindValidation, "user %d is not a delivery crew member", userID)
	}
	return nil
}

func (o *OrderService) Delete(ctx context.Context, caller Caller, id int64) (Order, error) {
	if err := caller.RequireManager(); err != nil {
		return Order{}, err
	}
	var deleted Order
	err := o.Store.Atomic(ctx, func(tx Store) error {
		ord, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteOrder(ctx, id); err != nil {
			return err
		}
		deleted = ord
		return nil
	})
	return deleted, err
}

// AssignCrew sets the order's delivery crew by username.
func (o *OrderService) AssignCrew(ctx context.Context, caller Caller, orderID int64, username string) (OrderChange, error) {
	if err := caller.RequireManager(); err != nil {
		return OrderChange{}, err
	}
	u, err := o.Store.UserByUsername(ctx, username)
	if err != nil {
		return OrderChange{}, err
	}
	return o.apply(ctx, orderID, OrderUpdate{DeliveryCrew: Some(&u.ID)}, nil)
}

func (o *OrderService) UnassignCrew(ctx context.Context, caller Caller, orderID int64) (OrderChange, error) {
	if err := caller.RequireManager(); err != nil {
		return OrderChange{}, err
	}
	return o.apply(ctx, orderID, OrderUpdate{DeliveryCrew: Some[*int64](nil)}, nil)
}
