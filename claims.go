package tracker

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates access tokens from refresh tokens so one can never
// be replayed as the other.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenClaims is the concrete implementation of SessionClaims
type TokenClaims struct {
	jwt.RegisteredClaims
	TokenKind TokenKind `json:"kind,omitempty"`
}

// Verify interface compliance
var _ SessionClaims = (*TokenClaims)(nil)

// Subject returns the subject claim, the user id
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// TokenID returns the jti claim
func (c *TokenClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

// Kind returns the token kind
func (c *TokenClaims) Kind() TokenKind {
	return c.TokenKind
}

// IsAccess reports whether this is an access token
func (c *TokenClaims) IsAccess() bool {
	return c.TokenKind == TokenKindAccess
}

// IsRefresh reports whether this is a refresh token
func (c *TokenClaims) IsRefresh() bool {
	return c.TokenKind == TokenKindRefresh
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
