package restaurant

import (
	"context"
	"strings"
)

// MaxQuantity bounds a cart line so its price fits the stored numeric width.
const MaxQuantity = 32767

type CartService struct {
	Store Store
}

func NewCartService(s Store) *CartService { return &CartService{Store: s} }

func (c *CartService) List(ctx context.Context, caller Caller) ([]CartLine, error) {
	if err := caller.RequireAuth(); err != nil {
		return nil, err
	}
	return c.Store.CartLines(ctx, caller.User.ID)
}

// Add always inserts a new line, even when the item is already in the cart.
func (c *CartService) Add(ctx context.Context, caller Caller, menuItemTitle string, qty int) (CartLine, error) {
	if err := caller.RequireAuth(); err != nil {
		return CartLine{}, err
	}
	menuItemTitle = strings.TrimSpace(menuItemTitle)
	if menuItemTitle == "" {
		return CartLine{}, Errorf(KindValidation, "menuitem is required")
	}
	if qty < 1 || qty > MaxQuantity {
		return CartLine{}, Errorf(KindValidation, "quantity must be between 1 and %d", MaxQuantity)
	}

	item, err := c.Store.MenuItemByTitle(ctx, menuItemTitle)
	if err != nil {
		return CartLine{}, err
	}
	line := CartLine{
		UserID:     caller.User.ID,
		MenuItemID: item.ID,
		MenuItem:   item.Title,
		Quantity:   qty,
		UnitPrice:  item.Price,
		Price:      LinePrice(item.Price, qty),
	}
	if err := c.Store.InsertCartLine(ctx, &line); err != nil {
		return CartLine{}, err
	}
	return line, nil
}

func (c *CartService) Clear(ctx context.Context, caller Caller) (int64, error) {
	if err := caller.RequireAuth(); err != nil {
		return 0, err
	}
	return c.Store.ClearCart(ctx, caller.User.ID)
}
