package tracker

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// SessionState is where a request landed in the per-request session machine
type SessionState int

const (
	// SessionNoCredential means the request carried no access token
	SessionNoCredential SessionState = iota
	// SessionAccessValid means the access token verified and is not revoked
	SessionAccessValid
	// SessionAccessExpiredRefreshValid means the access token expired and the
	// refresh token bought a rotated pair
	SessionAccessExpiredRefreshValid
	// SessionAccessExpiredRefreshInvalid means the access token expired and
	// the refresh token could not redeem it
	SessionAccessExpiredRefreshInvalid
	// SessionRejected means a credential failed verification outright
	SessionRejected
)

// String implements fmt.Stringer
func (s SessionState) String() string {
	switch s {
	case SessionNoCredential:
		return "no_credential"
	case SessionAccessValid:
		return "access_valid"
	case SessionAccessExpiredRefreshValid:
		return "access_expired_refresh_valid"
	case SessionAccessExpiredRefreshInvalid:
		return "access_expired_refresh_invalid"
	case SessionRejected:
		return "rejected"
	}
	return "unknown"
}

// CredentialPair is a signed access/refresh token pair with cookie expiries
type CredentialPair struct {
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
}

// SessionResolution is the outcome of running the session machine for one
// request. Rotated is non nil only when a fresh pair must be attached to the
// response.
type SessionResolution struct {
	State   SessionState
	Claims  *TokenClaims
	Rotated *CredentialPair
}

// SessionManager drives token verification, ledger checks, and rotation
type SessionManager struct {
	tokens TokenService
	ledger TokenLedger
	logger Logger
}

// NewSessionManager creates a SessionManager
func NewSessionManager(tokens TokenService, ledger TokenLedger, logger Logger) *SessionManager {
	if logger == nil {
		logger = defLogger{}
	}
	return &SessionManager{
		tokens: tokens,
		ledger: ledger,
		logger: logger,
	}
}

// Resolve runs the session state machine over the request's raw cookie
// values. On success the returned claims identify the subject; when the
// access token was expired and redeemed, Rotated carries the replacement
// pair the caller must attach to the response.
func (m *SessionManager) Resolve(ctx context.Context, accessToken, refreshToken string) (*SessionResolution, error) {
	if accessToken == "" {
		return &SessionResolution{State: SessionNoCredential}, nil
	}

	claims, err := m.tokens.Validate(accessToken)
	if err == nil {
		return m.resolveLive(ctx, claims)
	}

	if IsTokenExpiredError(err) {
		return m.resolveExpired(ctx, accessToken, refreshToken)
	}

	m.logger.Debug("session rejected access token: %s", err)
	return &SessionResolution{State: SessionRejected}, ErrInvalidToken
}

// resolveLive handles an unexpired, signature-valid access token
func (m *SessionManager) resolveLive(ctx context.Context, claims *TokenClaims) (*SessionResolution, error) {
	if !claims.IsAccess() {
		return &SessionResolution{State: SessionRejected}, ErrInvalidToken
	}

	entry, err := m.ledger.Lookup(ctx, claims.TokenID())
	if err != nil {
		return &SessionResolution{State: SessionRejected}, errors.Wrap(err, ErrInternal.Category, ErrInternal.Message).
			WithTextCode(ErrInternal.TextCode)
	}

	// A live access token missing from the ledger is accepted; the blacklist
	// only ever says no.
	if entry != nil && entry.Blacklisted {
		m.logger.Warn("session rejected blacklisted access token jti=%s sub=%s", claims.TokenID(), claims.Subject())
		return &SessionResolution{State: SessionRejected}, ErrForbidden
	}

	return &SessionResolution{State: SessionAccessValid, Claims: claims}, nil
}

// resolveExpired redeems an expired access token against the refresh token
func (m *SessionManager) resolveExpired(ctx context.Context, accessToken, refreshToken string) (*SessionResolution, error) {
	expired, err := m.tokens.DecodeExpired(accessToken)
	if err != nil {
		return &SessionResolution{State: SessionRejected}, ErrInvalidToken
	}

	// Only an access token can anchor a rotation; an expired refresh token in
	// the access slot is not a session.
	if !expired.IsAccess() {
		return &SessionResolution{State: SessionRejected}, ErrInvalidToken
	}

	if refreshToken == "" {
		return &SessionResolution{State: SessionAccessExpiredRefreshInvalid}, ErrInvalidToken
	}

	refresh, err := m.tokens.Validate(refreshToken)
	if err != nil || !refresh.IsRefresh() {
		return &SessionResolution{State: SessionAccessExpiredRefreshInvalid}, ErrInvalidToken
	}

	// A refresh token for a different subject than the access token it is
	// redeeming is not a session, it is a splice.
	if refresh.Subject() != expired.Subject() {
		m.logger.Warn("session refresh subject mismatch access=%s refresh=%s", expired.Subject(), refresh.Subject())
		return &SessionResolution{State: SessionAccessExpiredRefreshInvalid}, ErrInvalidToken
	}

	state, err := m.ledger.Consume(ctx, refresh.TokenID())
	if err != nil {
		return &SessionResolution{State: SessionRejected}, errors.Wrap(err, ErrInternal.Category, ErrInternal.Message).
			WithTextCode(ErrInternal.TextCode)
	}

	if state == RefreshReplayed {
		if err := m.RevokeAll(ctx, refresh.Subject()); err != nil {
			m.logger.Error("session failed to revoke token family for %s: %s", refresh.Subject(), err)
		}
		m.logger.Warn("session detected refresh token replay, family revoked sub=%s jti=%s", refresh.Subject(), refresh.TokenID())
		return &SessionResolution{State: SessionRejected}, ErrForbidden
	}

	// RefreshConsumed or RefreshUnknown: this call owns the rotation. The new
	// refresh token inherits the spent one's expiry, capping total session
	// lifetime at the first refresh token's horizon.
	pair, claims, err := m.rotate(ctx, refresh.Subject(), refresh.Expires())
	if err != nil {
		return &SessionResolution{State: SessionRejected}, err
	}

	return &SessionResolution{
		State:   SessionAccessExpiredRefreshValid,
		Claims:  claims,
		Rotated: pair,
	}, nil
}

// IssuePair mints and records a fresh access/refresh pair for the subject
func (m *SessionManager) IssuePair(ctx context.Context, subject string) (*CredentialPair, error) {
	pair, _, err := m.rotate(ctx, subject, time.Time{})
	return pair, err
}

// RevokeAll blacklists every outstanding token for the subject
func (m *SessionManager) RevokeAll(ctx context.Context, subject string) error {
	userID, err := uuid.Parse(subject)
	if err != nil {
		return errors.Wrap(err, ErrInvalidToken.Category, ErrInvalidToken.Message).
			WithTextCode(ErrInvalidToken.TextCode)
	}
	return m.ledger.BlacklistAll(ctx, userID)
}

func (m *SessionManager) rotate(ctx context.Context, subject string, refreshExpiry time.Time) (*CredentialPair, *TokenClaims, error) {
	accessToken, accessClaims, err := m.tokens.IssueAccess(subject)
	if err != nil {
		return nil, nil, err
	}

	var refreshToken string
	var refreshClaims *TokenClaims
	if refreshExpiry.IsZero() {
		refreshToken, refreshClaims, err = m.tokens.IssueRefresh(subject)
	} else {
		refreshToken, refreshClaims, err = m.tokens.IssueRefresh(subject, refreshExpiry)
	}
	if err != nil {
		return nil, nil, err
	}

	for _, claims := range []*TokenClaims{accessClaims, refreshClaims} {
		entry, err := NewLedgerEntry(claims)
		if err != nil {
			return nil, nil, err
		}
		if err := m.ledger.Record(ctx, entry); err != nil {
			return nil, nil, err
		}
	}

	pair := &CredentialPair{
		AccessToken:    accessToken,
		AccessExpires:  accessClaims.Expires(),
		RefreshToken:   refreshToken,
		RefreshExpires: refreshClaims.Expires(),
	}

	return pair, accessClaims, nil
}
