package restaurant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/little-lemon-api/internal/memstore"
	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	mg, _ := s.EnsureGroup(ctx, restaurant.GroupManager)
	dg, _ := s.EnsureGroup(ctx, restaurant.GroupDelivery)
	other, _ := s.EnsureGroup(ctx, "Kitchen")
	r := restaurant.NewResolver(s, restaurant.RoleGroups{Manager: mg, Delivery: dg})

	tests := []struct {
		name      string
		superuser bool
		groups    []int64
		want      restaurant.Role
	}{
		{"no groups", false, nil, restaurant.RoleCustomer},
		{"unrelated group", false, []int64{other.ID}, restaurant.RoleCustomer},
		{"delivery", false, []int64{dg.ID}, restaurant.RoleDeliveryCrew},
		{"manager", false, []int64{mg.ID}, restaurant.RoleManager},
		{"both groups", false, []int64{dg.ID, mg.ID}, restaurant.RoleManager},
		{"superuser", true, nil, restaurant.RoleManager},
		{"superuser in delivery", true, []int64{dg.ID}, restaurant.RoleManager},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := restaurant.User{Username: tt.name, IsSuperuser: tt.superuser}
			require.NoError(t, s.CreateUser(ctx, &u))
			for _, g := range tt.groups {
				require.NoError(t, s.AddGroupMember(ctx, g, u.ID))
			}
			got, err := r.Resolve(ctx, u)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadRoleGroups_Missing(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	_, _ = s.EnsureGroup(ctx, restaurant.GroupManager)

	_, err := restaurant.LoadRoleGroups(ctx, s, restaurant.GroupManager, restaurant.GroupDelivery)
	require.Error(t, err)
	assert.ErrorIs(t, err, restaurant.ErrNotFound)
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "manager", restaurant.RoleManager.String())
	assert.Equal(t, "delivery_crew", restaurant.RoleDeliveryCrew.String())
	assert.Equal(t, "customer", restaurant.RoleCustomer.String())
}

func TestErrorKinds(t *testing.T) {
	err := restaurant.Errorf(restaurant.KindForbidden, "nope")
	assert.ErrorIs(t, err, restaurant.ErrForbidden)
	assert.NotErrorIs(t, err, restaurant.ErrNotFound)
	assert.Equal(t, "nope", restaurant.PublicMessage(err))

	cause := assert.AnError
	st := restaurant.StorageError("insert order", cause)
	assert.ErrorIs(t, st, cause)
	assert.Equal(t, restaurant.KindStorage, restaurant.KindOf(st))
	assert.Equal(t, "storage failure", restaurant.PublicMessage(st))
	assert.Equal(t, restaurant.KindStorage, restaurant.KindOf(cause))
}
