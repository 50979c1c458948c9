package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour, 24*time.Hour)

	pair, err := tokens.Issue(42, "alice@x.com")
	require.NoError(t, err)

	id, err := tokens.Verify(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = tokens.Verify(pair.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token is not an access token")

	access, err := tokens.Refresh(pair.Refresh)
	require.NoError(t, err)
	id, err = tokens.Verify(access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = tokens.Refresh(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	tokens := NewTokens("s3cret", time.Minute, time.Hour)
	other := NewTokens("other", time.Minute, time.Hour)

	pair, err := other.Issue(1, "x@y.z")
	require.NoError(t, err)
	_, err = tokens.Verify(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	pair, err = tokens.Issue(1, "x@y.z")
	require.NoError(t, err)
	tokens.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tokens.Verify(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("securepassword123")
	require.NoError(t, err)
	assert.NotEqual(t, "securepassword123", hash)
	assert.NoError(t, CheckPassword(hash, "securepassword123"))
	assert.Error(t, CheckPassword(hash, "wrong"))
}
