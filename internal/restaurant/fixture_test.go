package restaurant_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/little-lemon-api/internal/memstore"
	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

type fixture struct {
	store    *memstore.Store
	resolver *restaurant.Resolver
	cart     *restaurant.CartService
	orders   *restaurant.OrderService
	menu     *restaurant.MenuService
	groups   *restaurant.GroupService
	users    *restaurant.UserService

	manager, crew, otherCrew, customer, otherCustomer restaurant.Caller
	itemA, itemB                                      restaurant.MenuItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()

	mg, err := s.EnsureGroup(ctx, restaurant.GroupManager)
	require.NoError(t, err)
	dg, err := s.EnsureGroup(ctx, restaurant.GroupDelivery)
	require.NoError(t, err)
	rg, err := restaurant.LoadRoleGroups(ctx, s, restaurant.GroupManager, restaurant.GroupDelivery)
	require.NoError(t, err)

	f := &fixture{store: s, resolver: restaurant.NewResolver(s, rg)}
	f.cart = restaurant.NewCartService(s)
	f.orders = restaurant.NewOrderService(s, f.resolver)
	f.menu = restaurant.NewMenuService(s)
	f.groups = restaurant.NewGroupService(s, rg)
	f.users = restaurant.NewUserService(s, f.resolver)
	f.users.Cost = 4 // bcrypt.MinCost keeps tests fast

	mk := func(name string, groupIDs ...int64) restaurant.Caller {
		u := restaurant.User{Username: name, Password: "x"}
		require.NoError(t, s.CreateUser(ctx, &u))
		for _, g := range groupIDs {
			require.NoError(t, s.AddGroupMember(ctx, g, u.ID))
		}
		c, err := f.users.Caller(ctx, u.ID)
		require.NoError(t, err)
		return c
	}
	f.manager = mk("mario", mg.ID)
	f.crew = mk("dina", dg.ID)
	f.otherCrew = mk("dario", dg.ID)
	f.customer = mk("carla")
	f.otherCustomer = mk("chris")

	cat := restaurant.Category{Title: "Mains", Slug: "mains"}
	require.NoError(t, s.CreateCategory(ctx, &cat))
	f.itemA = restaurant.MenuItem{Title: "Greek Salad", Price: decimal.RequireFromString("10.00"), CategoryID: cat.ID}
	require.NoError(t, s.CreateMenuItem(ctx, &f.itemA))
	f.itemB = restaurant.MenuItem{Title: "Lemon Dessert", Price: decimal.RequireFromString("5.00"), CategoryID: cat.ID}
	require.NoError(t, s.CreateMenuItem(ctx, &f.itemB))
	return f
}

// placeOrder fills the caller's cart with one line of itemA and checks out.
func (f *fixture) placeOrder(t *testing.T, c restaurant.Caller) restaurant.Order {
	t.Helper()
	ctx := context.Background()
	_, err := f.cart.Add(ctx, c, f.itemA.Title, 1)
	require.NoError(t, err)
	o, err := f.orders.Checkout(ctx, c)
	require.NoError(t, err)
	return o
}

func requireKind(t *testing.T, want restaurant.Kind, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, restaurant.KindOf(err), "error: %v", err)
}
