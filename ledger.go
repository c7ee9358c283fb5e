package tracker

import (
	"context"

	"github.com/google/uuid"
)

// RefreshTokenState is the outcome of consuming a refresh token jti
type RefreshTokenState int

const (
	// RefreshUnknown means the jti has no ledger entry. The ledger records
	// every issued token, so this only happens when the ledger predates the
	// token; it is treated as a first use.
	RefreshUnknown RefreshTokenState = iota
	// RefreshConsumed means this call marked the entry spent; the caller owns
	// the rotation.
	RefreshConsumed
	// RefreshReplayed means the entry was already spent. Someone is replaying
	// a captured token and the whole session family must be revoked.
	RefreshReplayed
)

// TokenLedger tracks issued token jtis and their blacklist state
type TokenLedger interface {
	// Record stores a ledger entry for a freshly issued token
	Record(ctx context.Context, entry *LedgerEntry) error
	// Lookup returns the entry for a jti, or (nil, nil) when none exists
	Lookup(ctx context.Context, jti string) (*LedgerEntry, error)
	// Blacklist marks a single jti as spent. Idempotent.
	Blacklist(ctx context.Context, jti string) error
	// BlacklistAll marks every entry for the user as spent
	BlacklistAll(ctx context.Context, userID uuid.UUID) error
	// Consume atomically marks a refresh jti as spent, reporting whether this
	// call won the exchange. Two concurrent rotations with the same token can
	// not both observe RefreshConsumed.
	Consume(ctx context.Context, jti string) (RefreshTokenState, error)
	// Purge removes entries that expired before the cutoff
	Purge(ctx context.Context) (int64, error)
}
