package tracker

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ActivityFilters narrows an owner's activity listing. Zero values are
// ignored.
type ActivityFilters struct {
	Variant ActivityVariant
	Title   string
	Group   string
	Start   *time.Time
	End     *time.Time
}

type Activities interface {
	repository.Repository[*Activity]

	GetOwned(ctx context.Context, ownerID, id uuid.UUID) (*Activity, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID, filters ActivityFilters) ([]*Activity, error)
	UpdateOwned(ctx context.Context, ownerID uuid.UUID, record *Activity) (*Activity, error)
	DeleteOwned(ctx context.Context, ownerID, id uuid.UUID) error
}

type activities struct {
	repository.Repository[*Activity]
	db *bun.DB
}

var (
	_ Activities                       = (*activities)(nil)
	_ repository.Repository[*Activity] = (*activities)(nil)
)

func NewActivitiesRepository(db *bun.DB) Activities {
	repo := repository.NewRepository[*Activity](db, repository.ModelHandlers[*Activity]{
		NewRecord: func() *Activity { return &Activity{} },
		GetID: func(a *Activity) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Activity, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
	})

	return &activities{
		Repository: repo,
		db:         db,
	}
}

func (a *activities) GetOwned(ctx context.Context, ownerID, id uuid.UUID) (*Activity, error) {
	record := &Activity{}

	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.user_id = ?", ownerID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			// Another tenant's record is indistinguishable from a missing one.
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *activities) ListOwned(ctx context.Context, ownerID uuid.UUID, filters ActivityFilters) ([]*Activity, error) {
	records := []*Activity{}

	q := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", ownerID)

	if filters.Variant != "" {
		q = q.Where("?TableAlias.variant = ?", filters.Variant)
	}
	if filters.Title != "" {
		q = q.Where("?TableAlias.title = ?", filters.Title)
	}
	if filters.Group != "" {
		q = q.Where("?TableAlias.activity_group = ?", filters.Group)
	}
	if filters.Start != nil {
		q = q.Where("?TableAlias.start_at >= ?", *filters.Start)
	}
	if filters.End != nil {
		q = q.Where("?TableAlias.end_at <= ?", *filters.End)
	}

	if err := q.Order("start_at DESC").Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

func (a *activities) UpdateOwned(ctx context.Context, ownerID uuid.UUID, record *Activity) (*Activity, error) {
	if _, err := a.GetOwned(ctx, ownerID, record.ID); err != nil {
		return nil, err
	}

	record.UserID = ownerID

	return a.Repository.UpdateTx(ctx, a.db, record, repository.UpdateByID(record.ID.String()))
}

func (a *activities) DeleteOwned(ctx context.Context, ownerID, id uuid.UUID) error {
	record, err := a.GetOwned(ctx, ownerID, id)
	if err != nil {
		return err
	}

	return a.Repository.DeleteTx(ctx, a.db, record)
}
