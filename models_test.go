package tracker_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-tracker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProfile(t *testing.T) {
	user := &tracker.User{
		ID:           uuid.New(),
		Email:        "ada@example.com",
		Role:         tracker.RoleUser,
		Verified:     true,
		GivenName:    "Ada",
		FamilyName:   "Lovelace",
		ImageURL:     "https://example.com/ada.png",
		PasswordHash: "$2a$12$something",
	}

	profile := tracker.NewProfile(user)

	assert.Equal(t, user.ID, profile.ID)
	assert.Equal(t, user.Email, profile.Email)
	assert.Equal(t, user.GivenName, profile.GivenName)

	t.Run("never serializes the password hash", func(t *testing.T) {
		raw, err := json.Marshal(profile)
		require.NoError(t, err)

		assert.NotContains(t, string(raw), "password")
		assert.Contains(t, string(raw), `"givenName":"Ada"`)
		assert.Contains(t, string(raw), `"familyName":"Lovelace"`)
		assert.Contains(t, string(raw), `"img":"https://example.com/ada.png"`)
	})

	t.Run("nil user yields a zero profile", func(t *testing.T) {
		assert.Equal(t, tracker.Profile{}, tracker.NewProfile(nil))
	})
}

func TestNewLedgerEntry(t *testing.T) {
	userID := uuid.New()
	expires := time.Now().Add(time.Hour)

	claims := &tracker.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		TokenKind: tracker.TokenKindRefresh,
	}

	entry, err := tracker.NewLedgerEntry(claims)
	require.NoError(t, err)

	assert.Equal(t, userID, entry.UserID)
	assert.Equal(t, claims.TokenID(), entry.JTI)
	assert.Equal(t, tracker.TokenKindRefresh, entry.Kind)
	assert.False(t, entry.Blacklisted)
	assert.Equal(t, expires.Unix(), entry.ExpiresAt.Unix())

	t.Run("rejects nil claims", func(t *testing.T) {
		_, err := tracker.NewLedgerEntry(nil)
		assert.Error(t, err)
	})

	t.Run("rejects a subject that is not a uuid", func(t *testing.T) {
		bad := &tracker.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "not-a-uuid"},
		}
		_, err := tracker.NewLedgerEntry(bad)
		assert.Error(t, err)
	})
}
