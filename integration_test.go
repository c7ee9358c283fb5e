package tracker_test

import (
	"context"
	"sync"
	"testing"

	"github.com/goliatone/go-tracker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryLedger is an in-memory TokenLedger with the same single-use semantics
// as the SQL implementation
type memoryLedger struct {
	mu      sync.Mutex
	entries map[string]*tracker.LedgerEntry
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{entries: map[string]*tracker.LedgerEntry{}}
}

func (l *memoryLedger) Record(ctx context.Context, entry *tracker.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[entry.JTI] = entry
	return nil
}

func (l *memoryLedger) Lookup(ctx context.Context, jti string) (*tracker.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries[jti], nil
}

func (l *memoryLedger) Blacklist(ctx context.Context, jti string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry, ok := l.entries[jti]; ok {
		entry.Blacklisted = true
	}
	return nil
}

func (l *memoryLedger) BlacklistAll(ctx context.Context, userID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, entry := range l.entries {
		if entry.UserID == userID {
			entry.Blacklisted = true
		}
	}
	return nil
}

func (l *memoryLedger) Consume(ctx context.Context, jti string) (tracker.RefreshTokenState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[jti]
	if !ok {
		return tracker.RefreshUnknown, nil
	}
	if entry.Blacklisted {
		return tracker.RefreshReplayed, nil
	}
	entry.Blacklisted = true
	return tracker.RefreshConsumed, nil
}

func (l *memoryLedger) Purge(ctx context.Context) (int64, error) {
	return 0, nil
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	service := newTestTokenService()
	ledger := newMemoryLedger()
	manager := tracker.NewSessionManager(service, ledger, noopLogger{})

	subject := uuid.NewString()

	// Login issues a pair and records both jtis
	pair, err := manager.IssuePair(ctx, subject)
	require.NoError(t, err)
	assert.Len(t, ledger.entries, 2)

	// The live access token resolves
	res, err := manager.Resolve(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, tracker.SessionAccessValid, res.State)

	// An expired access token is redeemed through the refresh token
	expired := signExpiredToken(t, service, subject, tracker.TokenKindAccess)

	res, err = manager.Resolve(ctx, expired, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, tracker.SessionAccessExpiredRefreshValid, res.State)
	require.NotNil(t, res.Rotated)
	rotated := res.Rotated

	// The rotated pair works on its own
	res, err = manager.Resolve(ctx, rotated.AccessToken, rotated.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, tracker.SessionAccessValid, res.State)

	// Replaying the spent refresh token revokes the whole family
	res, err = manager.Resolve(ctx, expired, pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, tracker.SessionRejected, res.State)
	assert.ErrorIs(t, err, tracker.ErrForbidden)

	// Even the freshly rotated access token is now dead
	res, err = manager.Resolve(ctx, rotated.AccessToken, rotated.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, tracker.SessionRejected, res.State)
	assert.ErrorIs(t, err, tracker.ErrForbidden)
}

func TestSessionLifecycle_ConcurrentRotation(t *testing.T) {
	ctx := context.Background()
	service := newTestTokenService()
	ledger := newMemoryLedger()
	manager := tracker.NewSessionManager(service, ledger, noopLogger{})

	subject := uuid.NewString()

	pair, err := manager.IssuePair(ctx, subject)
	require.NoError(t, err)

	expired := signExpiredToken(t, service, subject, tracker.TokenKindAccess)

	// Race several requests holding the same refresh token. Consume is a
	// conditional update, so exactly one may win the rotation.
	const workers = 8
	var wg sync.WaitGroup
	rotations := make([]*tracker.CredentialPair, workers)

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := manager.Resolve(ctx, expired, pair.RefreshToken)
			if err == nil && res.Rotated != nil {
				rotations[i] = res.Rotated
			}
		}()
	}
	wg.Wait()

	winners := 0
	for _, rotated := range rotations {
		if rotated != nil {
			winners++
		}
	}
	assert.LessOrEqual(t, winners, 1)

	// The losers observed a replay and revoked the family
	if winners == 1 {
		for _, rotated := range rotations {
			if rotated == nil {
				continue
			}
			res, err := manager.Resolve(ctx, rotated.AccessToken, rotated.RefreshToken)
			require.Error(t, err)
			assert.Equal(t, tracker.SessionRejected, res.State)
		}
	}
}

func TestSessionLifecycle_Logout(t *testing.T) {
	ctx := context.Background()
	service := newTestTokenService()
	ledger := newMemoryLedger()
	manager := tracker.NewSessionManager(service, ledger, noopLogger{})

	subject := uuid.NewString()

	pair, err := manager.IssuePair(ctx, subject)
	require.NoError(t, err)

	require.NoError(t, manager.RevokeAll(ctx, subject))

	// A blacklisted access token is refused even before it expires
	res, err := manager.Resolve(ctx, pair.AccessToken, pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, tracker.SessionRejected, res.State)
	assert.ErrorIs(t, err, tracker.ErrForbidden)

	// The refresh token cannot rotate after logout either
	expired := signExpiredToken(t, service, subject, tracker.TokenKindAccess)

	res, err = manager.Resolve(ctx, expired, pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, tracker.SessionRejected, res.State)
	assert.ErrorIs(t, err, tracker.ErrForbidden)
}

func TestSessionLifecycle_DoesNotOutliveFirstRefreshHorizon(t *testing.T) {
	ctx := context.Background()
	service := newTestTokenService()
	ledger := newMemoryLedger()
	manager := tracker.NewSessionManager(service, ledger, noopLogger{})

	subject := uuid.NewString()

	pair, err := manager.IssuePair(ctx, subject)
	require.NoError(t, err)

	first, err := service.Validate(pair.RefreshToken)
	require.NoError(t, err)

	// Rotate a few times; the refresh horizon must never move
	current := pair
	for range 3 {
		expired := signExpiredToken(t, service, subject, tracker.TokenKindAccess)

		res, err := manager.Resolve(ctx, expired, current.RefreshToken)
		require.NoError(t, err)
		require.NotNil(t, res.Rotated)
		current = &tracker.CredentialPair{
			AccessToken:    res.Rotated.AccessToken,
			AccessExpires:  res.Rotated.AccessExpires,
			RefreshToken:   res.Rotated.RefreshToken,
			RefreshExpires: res.Rotated.RefreshExpires,
		}

		claims, err := service.Validate(current.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, first.Expires().Unix(), claims.Expires().Unix())
	}
}
