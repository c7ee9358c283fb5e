package tracker

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type tokenLedger struct {
	repository.Repository[*LedgerEntry]
	db *bun.DB
}

var _ TokenLedger = (*tokenLedger)(nil)

// NewTokenLedger creates the bun backed token ledger
func NewTokenLedger(db *bun.DB) TokenLedger {
	repo := repository.NewRepository[*LedgerEntry](db, repository.ModelHandlers[*LedgerEntry]{
		NewRecord: func() *LedgerEntry { return &LedgerEntry{} },
		GetID: func(e *LedgerEntry) uuid.UUID {
			if e == nil {
				return uuid.Nil
			}
			return e.ID
		},
		SetID: func(e *LedgerEntry, id uuid.UUID) {
			if e != nil {
				e.ID = id
			}
		},
		GetIdentifier: func() string {
			return "jti"
		},
	})

	return &tokenLedger{
		Repository: repo,
		db:         db,
	}
}

func (l *tokenLedger) Record(ctx context.Context, entry *LedgerEntry) error {
	if entry == nil {
		return errors.New("ledger entry must not be nil", errors.CategoryInternal)
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	// The unique index on jti backs this up: a duplicate insert is a storage
	// fault, not a client condition.
	if _, err := l.Repository.CreateTx(ctx, l.db, entry); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to record token").
			WithMetadata(map[string]any{"jti": entry.JTI})
	}

	return nil
}

func (l *tokenLedger) Lookup(ctx context.Context, jti string) (*LedgerEntry, error) {
	record := &LedgerEntry{}

	err := l.db.NewSelect().
		Model(record).
		Where("?TableAlias.jti = ?", jti).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up token").
			WithMetadata(map[string]any{"jti": jti})
	}

	return record, nil
}

func (l *tokenLedger) Blacklist(ctx context.Context, jti string) error {
	_, err := l.db.NewUpdate().
		Model((*LedgerEntry)(nil)).
		Set("blacklisted = TRUE").
		Where("?TableAlias.jti = ?", jti).
		Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to blacklist token").
			WithMetadata(map[string]any{"jti": jti})
	}

	return nil
}

func (l *tokenLedger) BlacklistAll(ctx context.Context, userID uuid.UUID) error {
	_, err := l.db.NewUpdate().
		Model((*LedgerEntry)(nil)).
		Set("blacklisted = TRUE").
		Where("?TableAlias.user_id = ?", userID).
		Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to blacklist user tokens").
			WithMetadata(map[string]any{"user_id": userID.String()})
	}

	return nil
}

// Consume flips blacklisted in a single conditional UPDATE and checks rows
// affected, so the database linearizes concurrent exchanges of the same jti.
func (l *tokenLedger) Consume(ctx context.Context, jti string) (RefreshTokenState, error) {
	res, err := l.db.NewUpdate().
		Model((*LedgerEntry)(nil)).
		Set("blacklisted = TRUE").
		Where("?TableAlias.jti = ? AND ?TableAlias.blacklisted = FALSE", jti).
		Exec(ctx)

	if err != nil {
		return RefreshUnknown, errors.Wrap(err, errors.CategoryInternal, "failed to consume token").
			WithMetadata(map[string]any{"jti": jti})
	}

	if rows, err := res.RowsAffected(); err == nil && rows > 0 {
		return RefreshConsumed, nil
	}

	entry, err := l.Lookup(ctx, jti)
	if err != nil {
		return RefreshUnknown, err
	}
	if entry == nil {
		return RefreshUnknown, nil
	}

	return RefreshReplayed, nil
}

func (l *tokenLedger) Purge(ctx context.Context) (int64, error) {
	res, err := l.db.NewDelete().
		Model((*LedgerEntry)(nil)).
		Where("?TableAlias.expires_at < CURRENT_TIMESTAMP").
		Exec(ctx)

	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to purge expired tokens")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}

	return rows, nil
}
