package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"unicode password", "пароль🔒密码"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"),
				"hash should be in PHC format")
			require.NoError(t, VerifyPassword(tt.password, hash))
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	hash1, err := HashPassword("samepassword")
	require.NoError(t, err)
	hash2, err := HashPassword("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct-password")
	require.NoError(t, err)

	t.Run("wrong password rejected", func(t *testing.T) {
		require.Error(t, VerifyPassword("wrong-password", hash))
	})

	t.Run("malformed hashes rejected", func(t *testing.T) {
		for _, bad := range []string{
			"",
			"not-a-hash",
			"$argon2i$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
			"$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA",
			"$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA",
		} {
			require.Error(t, VerifyPassword("anything", bad), "should reject %q", bad)
		}
	})
}
