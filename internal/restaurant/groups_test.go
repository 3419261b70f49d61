package restaurant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

func TestGroupMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	name := f.customer.User.Username

	_, err := f.groups.Member(ctx, f.manager, restaurant.GroupKindDelivery, name)
	requireKind(t, restaurant.KindNotFound, err)

	_, err = f.groups.Add(ctx, f.manager, restaurant.GroupKindDelivery, name)
	require.NoError(t, err)
	// adding twice is a no-op
	_, err = f.groups.Add(ctx, f.manager, restaurant.GroupKindDelivery, name)
	require.NoError(t, err)

	u, err := f.groups.Member(ctx, f.manager, restaurant.GroupKindDelivery, name)
	require.NoError(t, err)
	assert.Equal(t, f.customer.User.ID, u.ID)

	members, err := f.groups.Members(ctx, f.manager, restaurant.GroupKindDelivery)
	require.NoError(t, err)
	assert.Len(t, members, 3)

	c, err := f.users.Caller(ctx, f.customer.User.ID)
	require.NoError(t, err)
	assert.Equal(t, restaurant.RoleDeliveryCrew, c.Role)

	_, err = f.groups.Remove(ctx, f.manager, restaurant.GroupKindDelivery, name)
	require.NoError(t, err)
	c, err = f.users.Caller(ctx, f.customer.User.ID)
	require.NoError(t, err)
	assert.Equal(t, restaurant.RoleCustomer, c.Role)

	managers, err := f.groups.Members(ctx, f.manager, restaurant.GroupKindManager)
	require.NoError(t, err)
	require.Len(t, managers, 1)
	assert.Equal(t, f.manager.User.Username, managers[0].Username)
}

func TestGroupMembership_ManagerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.groups.Members(ctx, f.crew, restaurant.GroupKindManager)
	requireKind(t, restaurant.KindForbidden, err)
	_, err = f.groups.Add(ctx, f.customer, restaurant.GroupKindManager, f.customer.User.Username)
	requireKind(t, restaurant.KindForbidden, err)
	_, err = f.groups.Add(ctx, f.manager, restaurant.GroupKindManager, "ghost")
	requireKind(t, restaurant.KindNotFound, err)
}

func TestDeliveryRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		req    restaurant.DeliveryRequest
		assign bool
		ok     bool
	}{
		{"assign to order", restaurant.DeliveryRequest{Target: "order", Order: 3, Username: "dina"}, true, true},
		{"assign without username", restaurant.DeliveryRequest{Target: "order", Order: 3}, true, false},
		{"unassign without username", restaurant.DeliveryRequest{Target: "order", Order: 3}, false, true},
		{"order missing", restaurant.DeliveryRequest{Target: "order", Username: "dina"}, true, false},
		{"group", restaurant.DeliveryRequest{Target: "group", Username: "dina"}, true, true},
		{"group without username", restaurant.DeliveryRequest{Target: "group"}, false, false},
		{"untagged", restaurant.DeliveryRequest{Order: 3, Username: "dina"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(tt.assign)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			requireKind(t, restaurant.KindValidation, err)
		})
	}
}
