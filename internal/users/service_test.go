package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() *Service {
	return NewService(NewMemoryUserRepository()).WithCost(bcrypt.MinCost)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	u, err := svc.Register(ctx, "x@example.com", "Passw0rdX")
	require.NoError(t, err)
	require.Equal(t, int64(1), u.ID)
	require.True(t, u.IsActive)
	require.NotEqual(t, "Passw0rdX", u.PasswordHash)

	got, err := svc.Authenticate(ctx, "X@example.com", "Passw0rdX")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "x@example.com", "wrong-Passw0rd")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@example.com", "Passw0rdX")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	byID, err := svc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "x@example.com", byID.Email)

	missing, err := svc.GetByID(ctx, 99)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Register(ctx, "not-an-email", "Passw0rdX")
	require.ErrorIs(t, err, ErrInvalidEmail)

	for _, pw := range []string{"short1A", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"} {
		_, err = svc.Register(ctx, "y@example.com", pw)
		require.ErrorIs(t, err, ErrWeakPassword, pw)
	}

	_, err = svc.Register(ctx, "dup@example.com", "Passw0rdX")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "DUP@example.com", "Passw0rdX")
	require.ErrorIs(t, err, ErrDuplicateEmail)
}
