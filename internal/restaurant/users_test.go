package restaurant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Register(ctx, "  adrian ", "lemonade-42", "Adrian@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "adrian", u.Username)
	assert.Equal(t, "adrian@example.com", u.Email)
	assert.NotEqual(t, "lemonade-42", u.Password)

	got, err := f.users.Authenticate(ctx, "adrian", "lemonade-42")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.users.Authenticate(ctx, "adrian", "wrong-password")
	requireKind(t, restaurant.KindUnauthorized, err)
	_, err = f.users.Authenticate(ctx, "ghost", "lemonade-42")
	requireKind(t, restaurant.KindUnauthorized, err)

	c, err := f.users.Caller(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, restaurant.RoleCustomer, c.Role)

	_, err = f.users.Caller(ctx, 98765)
	requireKind(t, restaurant.KindUnauthorized, err)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name, username, password, email string
	}{
		{"no username", "", "lemonade-42", ""},
		{"short password", "bo", "short", ""},
		{"bad email", "bo", "lemonade-42", "not-an-email"},
		{"taken", f.customer.User.Username, "lemonade-42", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Register(ctx, tt.username, tt.password, tt.email)
			requireKind(t, restaurant.KindValidation, err)
		})
	}
}

func TestCreateSuperuser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.CreateSuperuser(ctx, "admin", "pw", "")
	require.NoError(t, err)
	c, err := f.users.Caller(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, restaurant.RoleManager, c.Role)
}
