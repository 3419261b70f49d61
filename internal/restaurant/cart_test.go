package restaurant_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

func TestCartAdd_PriceIsExact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := restaurant.Category{Title: "Drinks", Slug: "drinks"}
	require.NoError(t, f.store.CreateCategory(ctx, &c))
	mint := restaurant.MenuItem{Title: "Mint", Price: decimal.RequireFromString("0.10"), CategoryID: c.ID}
	require.NoError(t, f.store.CreateMenuItem(ctx, &mint))

	_, err := f.cart.Add(ctx, f.customer, "Mint", 3)
	require.NoError(t, err)

	lines, err := f.cart.List(ctx, f.customer)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].UnitPrice.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, "0.3", lines[0].Price.String())
	assert.True(t, lines[0].Price.Equal(lines[0].UnitPrice.Mul(decimal.NewFromInt(3))))
}

func TestCartAdd_DuplicatesAreSeparateLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cart.Add(ctx, f.customer, f.itemA.Title, 1)
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, f.customer, f.itemA.Title, 2)
	require.NoError(t, err)

	lines, err := f.cart.List(ctx, f.customer)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.Equal(t, 2, lines[1].Quantity)
}

func TestCartAdd_PriceNotRecomputed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cart.Add(ctx, f.customer, f.itemA.Title, 2)
	require.NoError(t, err)

	_, err = f.menu.Patch(ctx, f.manager, f.itemA.ID, restaurant.MenuItemInput{
		Price: restaurant.Some(decimal.RequireFromString("99.00")),
	})
	require.NoError(t, err)

	lines, err := f.cart.List(ctx, f.customer)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Price.Equal(decimal.RequireFromString("20.00")))
}

func TestCartAdd_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		caller restaurant.Caller
		title  string
		qty    int
		want   restaurant.Kind
	}{
		{"unknown item", f.customer, "Pizza", 1, restaurant.KindNotFound},
		{"zero quantity", f.customer, f.itemA.Title, 0, restaurant.KindValidation},
		{"quantity too large", f.customer, f.itemA.Title, restaurant.MaxQuantity + 1, restaurant.KindValidation},
		{"empty title", f.customer, " ", 1, restaurant.KindValidation},
		{"anonymous", restaurant.Caller{}, f.itemA.Title, 1, restaurant.KindUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.cart.Add(ctx, tt.caller, tt.title, tt.qty)
			requireKind(t, tt.want, err)
		})
	}
}

func TestCartClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.cart.Clear(ctx, f.customer)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.cart.Add(ctx, f.customer, f.itemA.Title, 1)
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, f.customer, f.itemB.Title, 1)
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, f.otherCustomer, f.itemB.Title, 1)
	require.NoError(t, err)

	n, err = f.cart.Clear(ctx, f.customer)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	lines, err := f.cart.List(ctx, f.otherCustomer)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestCartAdd_MaxQuantity(t *testing.T) {
	f := newFixture(t)
	line, err := f.cart.Add(context.Background(), f.customer, f.itemA.Title, restaurant.MaxQuantity)
	require.NoError(t, err)
	assert.Equal(t, "327670.00", line.Price.StringFixed(2))
}
