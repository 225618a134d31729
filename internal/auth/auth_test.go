package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	Init("test-secret")

	id := uuid.New()
	token, err := NewToken(id)
	require.NoError(t, err)

	got, err := VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	Init("test-secret")

	token, err := NewToken(uuid.New())
	require.NoError(t, err)

	_, err = VerifyToken(token + "x")
	require.ErrorIs(t, err, ErrInvalidToken)

	Init("other-secret")
	_, err = VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2", hash)

	require.True(t, CheckPassword(hash, "hunter2"))
	require.False(t, CheckPassword(hash, "hunter3"))
}
