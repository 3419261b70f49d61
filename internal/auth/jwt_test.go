package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerify(t *testing.T) {
	iss := NewIssuer("s3cret", "little-lemon-api", time.Minute, time.Hour)

	pair, err := iss.Issue(42)
	require.NoError(t, err)

	c, err := iss.Verify(pair.Access, TokenAccess)
	require.NoError(t, err)
	id, err := c.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = iss.Verify(pair.Refresh, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token is not an access token")
	_, err = iss.Verify(pair.Access, TokenRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	access, err := iss.Refresh(pair.Refresh)
	require.NoError(t, err)
	_, err = iss.Verify(access, TokenAccess)
	require.NoError(t, err)
}

func TestVerify_Rejects(t *testing.T) {
	iss := NewIssuer("s3cret", "little-lemon-api", time.Minute, time.Hour)
	pair, err := iss.Issue(1)
	require.NoError(t, err)

	other := NewIssuer("different", "little-lemon-api", time.Minute, time.Hour)
	_, err = other.Verify(pair.Access, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	later := NewIssuer("s3cret", "little-lemon-api", time.Minute, time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = later.Verify(pair.Access, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	_, err = iss.Verify("garbage", TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
