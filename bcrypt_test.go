package tracker_test

import (
	"testing"

	"github.com/goliatone/go-tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	t.Run("hashes and verifies a password", func(t *testing.T) {
		hash, err := tracker.HashPassword("sup3r-secret")
		require.NoError(t, err)
		require.NotEmpty(t, hash)
		assert.NotEqual(t, "sup3r-secret", hash)

		assert.NoError(t, tracker.ComparePasswordAndHash("sup3r-secret", hash))
	})

	t.Run("hashes are salted", func(t *testing.T) {
		first, err := tracker.HashPassword("sup3r-secret")
		require.NoError(t, err)
		second, err := tracker.HashPassword("sup3r-secret")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("uses work factor 12", func(t *testing.T) {
		hash, err := tracker.HashPassword("sup3r-secret")
		require.NoError(t, err)

		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, 12, cost)
	})

	t.Run("rejects an empty password", func(t *testing.T) {
		_, err := tracker.HashPassword("")
		assert.ErrorIs(t, err, tracker.ErrNoEmptyString)
	})
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := tracker.HashPassword("sup3r-secret")
	require.NoError(t, err)

	t.Run("wrong password maps to wrong credentials", func(t *testing.T) {
		err := tracker.ComparePasswordAndHash("wrong-password", hash)
		assert.ErrorIs(t, err, tracker.ErrWrongCredentials)
	})

	t.Run("empty inputs are rejected", func(t *testing.T) {
		assert.Error(t, tracker.ComparePasswordAndHash("", hash))
		assert.Error(t, tracker.ComparePasswordAndHash("sup3r-secret", ""))
	})
}

func TestRandomPasswordHash(t *testing.T) {
	hash := tracker.RandomPasswordHash()
	require.NotEmpty(t, hash)

	other := tracker.RandomPasswordHash()
	assert.NotEqual(t, hash, other)
}
