package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "cryptox")
	if err != nil {
		panic(err)
	}
	if err := LoadPepper(filepath.Join(dir, "pepper")); err != nil {
		panic(err)
	}
	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func TestHashSecret(t *testing.T) {
	// sha256("secret")
	require.Equal(t,
		"2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b",
		HashSecret("secret"),
	)
	require.Len(t, HashSecret(""), 64)
}

func TestEnsureHashed(t *testing.T) {
	t.Run("plaintext is hashed once", func(t *testing.T) {
		v, hashed := EnsureHashed("secret", false)
		require.True(t, hashed)
		require.Equal(t, HashSecret("secret"), v)
	})

	t.Run("hashed value passes through", func(t *testing.T) {
		h := HashSecret("secret")
		v, hashed := EnsureHashed(h, true)
		require.True(t, hashed)
		require.Equal(t, h, v)
	})
}

func TestPasswordRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
			require.Len(t, strings.Split(hash, "$"), 6)

			require.NoError(t, VerifyPassword(tt.password, hash))
			require.ErrorIs(t, VerifyPassword(tt.password+"x", hash), ErrPasswordMismatch)
		})
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyPasswordInvalidFormat(t *testing.T) {
	for _, h := range []string{"", "plain", "$argon2i$v=19$m=1,t=1,p=1$aa$bb", "$argon2id$v=18$m=1,t=1,p=1$aa$bb"} {
		err := VerifyPassword("x", h)
		require.Error(t, err, h)
		require.NotErrorIs(t, err, ErrPasswordMismatch, h)
	}
}

func TestLoadPepperPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pepper")
	prev := currentPepper()
	defer setPepper(prev)

	require.NoError(t, LoadPepper(path))
	first := currentPepper()
	require.NotEmpty(t, first)

	require.NoError(t, LoadPepper(path))
	require.Equal(t, first, currentPepper())
}

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken(TokenSize256)
	require.NoError(t, err)
	require.Len(t, tok, 43)

	other, err := GenerateToken(TokenSize256)
	require.NoError(t, err)
	require.NotEqual(t, tok, other)

	_, err = GenerateToken(0)
	require.Error(t, err)
}
