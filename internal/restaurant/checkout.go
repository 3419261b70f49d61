package restaurant

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Checkout turns every cart line of the caller into one order. The order, its
// items and the cart deletion commit together or not at all.
func (o *OrderService) Checkout(ctx context.Context, caller Caller) (Order, error) {
	if err := caller.RequireAuth(); err != nil {
		return Order{}, err
	}

	var placed Order
	err := o.Store.Atomic(ctx, func(tx Store) error {
		lines, err := tx.LockCartLines(ctx, caller.User.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return Errorf(KindValidation, "cart is empty")
		}

		total := decimal.Zero
		for _, l := range lines {
			total = total.Add(l.Price)
		}

		order := Order{
			UserID: caller.User.ID,
			Status: StatusPending,
			Total:  total,
			Date:   o.today(),
		}
		if err := tx.InsertOrder(ctx, &order); err != nil {
			return err
		}

		ids := make([]int64, 0, len(lines))
		order.Items = make([]OrderItem, 0, len(lines))
		for _, l := range lines {
			it := OrderItem{
				OrderID:    order.ID,
				MenuItemID: l.MenuItemID,
				MenuItem:   l.MenuItem,
				Quantity:   l.Quantity,
				UnitPrice:  l.UnitPrice,
				Price:      l.Price,
			}
			if err := tx.InsertOrderItem(ctx, &it); err != nil {
				return err
			}
			order.Items = append(order.Items, it)
			ids = append(ids, l.ID)
		}

		if _, err := tx.DeleteCartLines(ctx, ids); err != nil {
			return err
		}
		placed = order
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return placed, nil
}

func (o *OrderService) today() time.Time {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	y, m, d := now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
