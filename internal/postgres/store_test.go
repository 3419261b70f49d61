package postgres_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/little-lemon-api/internal/postgres"
	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

// openStore connects to TEST_POSTGRES_DSN, migrates and empties every table.
func openStore(t *testing.T) (*postgres.Store, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool, slog.New(slog.NewTextHandler(io.Discard, nil))))
	_, err = pool.Exec(ctx, `
		TRUNCATE order_items, orders, cart_lines, menu_items, categories, user_groups, groups, users RESTART IDENTITY CASCADE;
		UPDATE featured_item SET menuitem_id = NULL`)
	require.NoError(t, err)
	return postgres.NewStore(pool), pool
}

type seeded struct {
	customer restaurant.Caller
	salad    restaurant.MenuItem
	dessert  restaurant.MenuItem
}

func seed(t *testing.T, s *postgres.Store) seeded {
	t.Helper()
	ctx := context.Background()
	_, err := s.EnsureGroup(ctx, restaurant.GroupManager)
	require.NoError(t, err)
	_, err = s.EnsureGroup(ctx, restaurant.GroupDelivery)
	require.NoError(t, err)

	u := restaurant.User{Username: "carla", Password: "x"}
	require.NoError(t, s.CreateUser(ctx, &u))
	cat := restaurant.Category{Title: "Mains", Slug: "mains"}
	require.NoError(t, s.CreateCategory(ctx, &cat))

	salad := restaurant.MenuItem{Title: "Greek Salad", Price: decimal.RequireFromString("10.00"), CategoryID: cat.ID}
	require.NoError(t, s.CreateMenuItem(ctx, &salad))
	dessert := restaurant.MenuItem{Title: "Lemon Dessert", Price: decimal.RequireFromString("5.00"), CategoryID: cat.ID}
	require.NoError(t, s.CreateMenuItem(ctx, &dessert))

	return seeded{
		customer: restaurant.Caller{User: u, Role: restaurant.RoleCustomer},
		salad:    salad,
		dessert:  dessert,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	_, pool := openStore(t)
	require.NoError(t, postgres.Migrate(context.Background(), pool, slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestCheckout_Postgres(t *testing.T) {
	s, _ := openStore(t)
	d := seed(t, s)
	ctx := context.Background()

	cart := restaurant.NewCartService(s)
	_, err := cart.Add(ctx, d.customer, d.salad.Title, 2)
	require.NoError(t, err)
	_, err = cart.Add(ctx, d.customer, d.dessert.Title, 1)
	require.NoError(t, err)

	rg, err := restaurant.LoadRoleGroups(ctx, s, restaurant.GroupManager, restaurant.GroupDelivery)
	require.NoError(t, err)
	orders := restaurant.NewOrderService(s, restaurant.NewResolver(s, rg))

	o, err := orders.Checkout(ctx, d.customer)
	require.NoError(t, err)
	assert.Equal(t, "25", o.Total.String())
	assert.Len(t, o.Items, 2)

	lines, err := s.CartLines(ctx, d.customer.User.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	stored, err := s.OrderByID(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(decimal.RequireFromString("25.00")))
	assert.Equal(t, restaurant.StatusPending, stored.Status)
	assert.Nil(t, stored.DeliveryCrew)

	_, err = orders.Checkout(ctx, d.customer)
	require.Error(t, err)
	assert.Equal(t, restaurant.KindValidation, restaurant.KindOf(err))
}

func TestCheckout_ConcurrentSameCart(t *testing.T) {
	s, _ := openStore(t)
	d := seed(t, s)
	ctx := context.Background()

	cart := restaurant.NewCartService(s)
	_, err := cart.Add(ctx, d.customer, d.salad.Title, 1)
	require.NoError(t, err)
	rg, err := restaurant.LoadRoleGroups(ctx, s, restaurant.GroupManager, restaurant.GroupDelivery)
	require.NoError(t, err)
	orders := restaurant.NewOrderService(s, restaurant.NewResolver(s, rg))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := orders.Checkout(ctx, d.customer); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
}

func TestFeatured_Postgres(t *testing.T) {
	s, _ := openStore(t)
	d := seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.SetFeatured(ctx, &d.salad.ID))
	require.NoError(t, s.SetFeatured(ctx, &d.dessert.ID))
	items, err := s.FeaturedItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, d.dessert.Title, items[0].Title)

	missing := int64(424242)
	err = s.SetFeatured(ctx, &missing)
	assert.Equal(t, restaurant.KindNotFound, restaurant.KindOf(err))

	require.NoError(t, s.DeleteMenuItem(ctx, d.dessert.ID))
	items, err = s.FeaturedItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestErrorMapping_Postgres(t *testing.T) {
	s, _ := openStore(t)
	d := seed(t, s)
	ctx := context.Background()

	dup := restaurant.User{Username: "CARLA", Password: "x"}
	err := s.CreateUser(ctx, &dup)
	assert.Equal(t, restaurant.KindValidation, restaurant.KindOf(err))

	_, err = s.OrderByID(ctx, 999)
	assert.Equal(t, restaurant.KindNotFound, restaurant.KindOf(err))

	_, _, err = s.ListOrders(ctx, restaurant.OrderQuery{ListParams: restaurant.ListParams{Ordering: "total"}})
	assert.Equal(t, restaurant.KindValidation, restaurant.KindOf(err))

	items, count, err := s.ListMenuItems(ctx, restaurant.MenuQuery{
		ListParams: restaurant.ListParams{Ordering: "-price"},
		Search:     "sal",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, items, 1)
	assert.Equal(t, d.salad.ID, items[0].ID)
	assert.Equal(t, "Mains", items[0].Category)
}

func TestOrderUpdate_ConcurrentReassignAndDeliver(t *testing.T) {
	s, _ := openStore(t)
	d := seed(t, s)
	ctx := context.Background()

	rg, err := restaurant.LoadRoleGroups(ctx, s, restaurant.GroupManager, restaurant.GroupDelivery)
	require.NoError(t, err)
	crew := func(name string) restaurant.Caller {
		u := restaurant.User{Username: name, Password: "x"}
		require.NoError(t, s.CreateUser(ctx, &u))
		require.NoError(t, s.AddGroupMember(ctx, rg.Delivery.ID, u.ID))
		return restaurant.Caller{User: u, Role: restaurant.RoleDeliveryCrew}
	}
	a, b := crew("adrian"), crew("bea")
	boss := restaurant.User{Username: "mario", Password: "x"}
	require.NoError(t, s.CreateUser(ctx, &boss))
	manager := restaurant.Caller{User: boss, Role: restaurant.RoleManager}

	cart := restaurant.NewCartService(s)
	orders := restaurant.NewOrderService(s, restaurant.NewResolver(s, rg))

	for i := 0; i < 10; i++ {
		_, err := cart.Add(ctx, d.customer, d.salad.Title, 1)
		require.NoError(t, err)
		o, err := orders.Checkout(ctx, d.customer)
		require.NoError(t, err)
		_, err = orders.Patch(ctx, manager, o.ID, restaurant.OrderUpdate{DeliveryCrew: restaurant.Some(&a.User.ID)})
		require.NoError(t, err)

		var wg sync.WaitGroup
		var crewErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := orders.Patch(ctx, manager, o.ID, restaurant.OrderUpdate{DeliveryCrew: restaurant.Some(&b.User.ID)})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, crewErr = orders.Patch(ctx, a, o.ID, restaurant.OrderUpdate{Status: restaurant.Some(restaurant.StatusDelivered)})
		}()
		wg.Wait()

		got, err := s.OrderByID(ctx, o.ID)
		require.NoError(t, err)
		require.NotNil(t, got.DeliveryCrew)
		assert.Equal(t, b.User.ID, *got.DeliveryCrew, "reassignment must survive the concurrent status change")
		if crewErr == nil {
			assert.Equal(t, restaurant.StatusDelivered, got.Status)
		} else {
			assert.Equal(t, restaurant.KindForbidden, restaurant.KindOf(crewErr))
			assert.Equal(t, restaurant.StatusPending, got.Status)
		}
	}
}
