package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

func TestAtomic_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := restaurant.User{Username: "ana"}
	require.NoError(t, s.CreateUser(ctx, &u))

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx restaurant.Store) error {
		o := restaurant.Order{UserID: u.ID, Status: restaurant.StatusPending}
		if err := tx.InsertOrder(ctx, &o); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	orders, n, err := s.ListOrders(ctx, restaurant.OrderQuery{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, orders)
}

func TestFailOn_NthCall(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := restaurant.User{Username: "ana"}
	require.NoError(t, s.CreateUser(ctx, &u))
	o := restaurant.Order{UserID: u.ID}
	require.NoError(t, s.InsertOrder(ctx, &o))

	s.FailOn("InsertOrderItem", 2, errors.New("disk full"))
	require.NoError(t, s.InsertOrderItem(ctx, &restaurant.OrderItem{OrderID: o.ID}))
	err := s.InsertOrderItem(ctx, &restaurant.OrderItem{OrderID: o.ID})
	require.Error(t, err)
	assert.Equal(t, restaurant.KindStorage, restaurant.KindOf(err))
	require.NoError(t, s.InsertOrderItem(ctx, &restaurant.OrderItem{OrderID: o.ID}))
}

func TestListMenuItems_FilterOrderPaginate(t *testing.T) {
	ctx := context.Background()
	s := New()
	mains := restaurant.Category{Title: "Mains", Slug: "mains"}
	desserts := restaurant.Category{Title: "Desserts", Slug: "desserts"}
	require.NoError(t, s.CreateCategory(ctx, &mains))
	require.NoError(t, s.CreateCategory(ctx, &desserts))
	for _, it := range []struct {
		title string
		price string
		cat   int64
	}{
		{"Greek Salad", "12.50", mains.ID},
		{"Bruschetta", "7.99", mains.ID},
		{"Lemon Cake", "5.00", desserts.ID},
	} {
		m := restaurant.MenuItem{Title: it.title, Price: decimal.RequireFromString(it.price), CategoryID: it.cat}
		require.NoError(t, s.CreateMenuItem(ctx, &m))
	}

	q := restaurant.MenuQuery{Category: "mains", ListParams: restaurant.ListParams{Ordering: "-price", Page: 1, PerPage: 1}}
	items, n, err := s.ListMenuItems(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, items, 1)
	assert.Equal(t, "Greek Salad", items[0].Title)
	assert.Equal(t, "Mains", items[0].Category)

	items, n, err = s.ListMenuItems(ctx, restaurant.MenuQuery{Search: "cake"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Lemon Cake", items[0].Title)

	_, _, err = s.ListMenuItems(ctx, restaurant.MenuQuery{ListParams: restaurant.ListParams{Ordering: "secret"}})
	assert.Equal(t, restaurant.KindValidation, restaurant.KindOf(err))
}

func TestDeleteMenuItem_ReferencedByOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	c := restaurant.Category{Title: "Mains", Slug: "mains"}
	require.NoError(t, s.CreateCategory(ctx, &c))
	m := restaurant.MenuItem{Title: "Pasta", Price: decimal.NewFromInt(9), CategoryID: c.ID}
	require.NoError(t, s.CreateMenuItem(ctx, &m))
	o := restaurant.Order{UserID: 1}
	require.NoError(t, s.InsertOrder(ctx, &o))
	require.NoError(t, s.InsertOrderItem(ctx, &restaurant.OrderItem{OrderID: o.ID, MenuItemID: m.ID}))

	err := s.DeleteMenuItem(ctx, m.ID)
	assert.Equal(t, restaurant.KindValidation, restaurant.KindOf(err))
}
