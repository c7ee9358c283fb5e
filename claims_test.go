package tracker_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-tracker"
	"github.com/stretchr/testify/assert"
)

func TestTokenClaims(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	expires := now.Add(10 * time.Minute)

	claims := &tracker.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ID:        "jti-abc",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		TokenKind: tracker.TokenKindAccess,
	}

	assert.Equal(t, "user-123", claims.Subject())
	assert.Equal(t, "jti-abc", claims.TokenID())
	assert.Equal(t, tracker.TokenKindAccess, claims.Kind())
	assert.True(t, claims.IsAccess())
	assert.False(t, claims.IsRefresh())
	assert.Equal(t, expires.Unix(), claims.Expires().Unix())
	assert.Equal(t, now.Unix(), claims.IssuedAt().Unix())
}

func TestTokenClaims_ZeroTimes(t *testing.T) {
	claims := &tracker.TokenClaims{TokenKind: tracker.TokenKindRefresh}

	assert.True(t, claims.IsRefresh())
	assert.True(t, claims.Expires().IsZero())
	assert.True(t, claims.IssuedAt().IsZero())
}
