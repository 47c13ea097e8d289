package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	auth "github.com/taskmesh/go-auth"
)

func TestHashPassword(t *testing.T) {
	t.Run("hashes and verifies", func(t *testing.T) {
		hash, err := auth.HashPassword("s3cret-passphrase")
		require.NoError(t, err)
		assert.NotEmpty(t, hash)
		assert.NotEqual(t, "s3cret-passphrase", hash)

		assert.NoError(t, auth.ComparePasswordAndHash("s3cret-passphrase", hash))
	})

	t.Run("equal passwords never share a hash", func(t *testing.T) {
		first, err := auth.HashPassword("same-password")
		require.NoError(t, err)
		second, err := auth.HashPassword("same-password")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		hash, err := auth.HashPassword("")
		assert.ErrorIs(t, err, auth.ErrNoEmptyString)
		assert.Empty(t, hash)
	})
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := auth.HashPassword("the-real-password")
	require.NoError(t, err)

	t.Run("mismatch maps to credentials error", func(t *testing.T) {
		err := auth.ComparePasswordAndHash("not-the-password", hash)
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("garbage hash fails", func(t *testing.T) {
		err := auth.ComparePasswordAndHash("anything", "not-a-bcrypt-hash")
		assert.Error(t, err)
	})
}

func TestRandomPasswordHash(t *testing.T) {
	hash := auth.RandomPasswordHash()
	assert.NotEmpty(t, hash)

	// nobody should be able to log in with a placeholder hash
	err := auth.ComparePasswordAndHash("", hash)
	assert.Error(t, err)
}
