package service

import (
	"context"
	"testing"
	"time"

	"github.com/mcpgate/mcpgate/pkg/cryptox"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestAuthenticatePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("plaintext password compared in constant time", func(t *testing.T) {
		svc := &LoginService{Password: "hunter2"}

		amr, err := svc.Authenticate(ctx, "hunter2", "")
		require.NoError(t, err)
		require.Equal(t, []string{"pwd"}, amr)

		_, err = svc.Authenticate(ctx, "wrong", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Authenticate(ctx, "", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("argon2 hash takes precedence", func(t *testing.T) {
		hash, err := cryptox.HashPassword("hunter2")
		require.NoError(t, err)

		svc := &LoginService{Password: "ignored", PasswordHash: hash}

		_, err = svc.Authenticate(ctx, "hunter2", "")
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, "ignored", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthenticateTOTP(t *testing.T) {
	ctx := context.Background()

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "mcpgate", AccountName: "operator"})
	require.NoError(t, err)

	svc := &LoginService{Password: "hunter2", TOTPSecret: key.Secret()}
	require.True(t, svc.OTPEnabled())

	t.Run("missing code is its own error", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "hunter2", "")
		require.ErrorIs(t, err, ErrOTPRequired)
	})

	t.Run("wrong code rejected", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "hunter2", "000000")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("valid code adds otp to amr", func(t *testing.T) {
		code, err := totp.GenerateCode(key.Secret(), time.Now())
		require.NoError(t, err)

		amr, err := svc.Authenticate(ctx, "hunter2", code)
		require.NoError(t, err)
		require.Equal(t, []string{"pwd", "otp"}, amr)
	})
}
