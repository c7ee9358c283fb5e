package tracker

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// ActivityControllerRoutes holds the paths the controller registers
type ActivityControllerRoutes struct {
	Collection string
	Item       string
}

type ActivityController struct {
	Logger     Logger
	Repo       RepositoryManager
	Routes     *ActivityControllerRoutes
	ContextKey string
}

type ActivityControllerOption func(*ActivityController) *ActivityController

func NewActivityController(opts ...ActivityControllerOption) *ActivityController {
	c := &ActivityController{
		Logger:     defLogger{},
		ContextKey: "session",
		Routes: &ActivityControllerRoutes{
			Collection: "/activity",
			Item:       "/activity/:id",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in activity controller...")
	}

	return c
}

func WithActivityLogger(logger Logger) ActivityControllerOption {
	return func(c *ActivityController) *ActivityController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithActivityRepo(repo RepositoryManager) ActivityControllerOption {
	return func(c *ActivityController) *ActivityController {
		c.Repo = repo
		return c
	}
}

// RegisterActivityRoutes mounts the activity surface. Every route requires an
// authenticated session.
func RegisterActivityRoutes[T any](app router.Router[T], controller *ActivityController, protected router.MiddlewareFunc) {
	app.Get(controller.Routes.Collection, protected(controller.List)).
		SetName("activity.list")

	app.Post(controller.Routes.Collection, protected(controller.Create)).
		SetName("activity.create")

	app.Get(controller.Routes.Item, protected(controller.Show)).
		SetName("activity.show")

	app.Patch(controller.Routes.Item, protected(controller.Update)).
		SetName("activity.update")

	app.Delete(controller.Routes.Item, protected(controller.Delete)).
		SetName("activity.delete")
}

// ActivityPayload is the create/update body
type ActivityPayload struct {
	Variant  string        `form:"variant" json:"variant"`
	Title    string        `form:"title" json:"title"`
	Group    string        `form:"group" json:"group"`
	Notes    string        `form:"notes" json:"notes"`
	Start    time.Time     `form:"start" json:"start"`
	End      time.Time     `form:"end" json:"end"`
	Timezone int           `form:"timezone" json:"timezone"`
	Data     *ActivityData `form:"data" json:"data"`
}

// Validate will run validation rules
func (r ActivityPayload) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Start, validation.Required),
		validation.Field(&r.End, validation.Required),
	)
	if err != nil {
		return err
	}

	if r.Variant != "" {
		if _, err := ParseActivityVariant(r.Variant); err != nil {
			return err
		}
	}

	if r.Data != nil {
		return r.Data.Validate()
	}

	return nil
}

func (r ActivityPayload) toModel(ownerID uuid.UUID) *Activity {
	variant := ActivityDefault
	if r.Variant != "" {
		variant, _ = ParseActivityVariant(r.Variant)
	}

	return &Activity{
		UserID:   ownerID,
		Variant:  variant,
		Title:    r.Title,
		Group:    r.Group,
		Notes:    r.Notes,
		Start:    r.Start,
		End:      r.End,
		Timezone: r.Timezone,
		Data:     r.Data,
	}
}

func (a *ActivityController) List(ctx router.Context) error {
	ownerID, err := a.ownerID(ctx)
	if err != nil {
		return renderError(ctx, err)
	}

	filters, err := parseActivityFilters(ctx)
	if err != nil {
		return renderValidationError(ctx, err)
	}

	records, err := a.Repo.Activities().ListOwned(ctx.Context(), ownerID, filters)
	if err != nil {
		a.Logger.Error("activity list for %s: %s", ownerID, err)
		return renderError(ctx, ErrInternal)
	}

	return ctx.JSON(router.StatusOK, records)
}

func (a *ActivityController) Create(ctx router.Context) error {
	ownerID, err := a.ownerID(ctx)
	if err != nil {
		return renderError(ctx, err)
	}

	payload := new(ActivityPayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("activity create parse payload: %s", err)
		return renderValidationError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return renderValidationError(ctx, err)
	}

	record := payload.toModel(ownerID)
	record.ID = uuid.New()

	created, err := a.Repo.Activities().Create(ctx.Context(), record)
	if err != nil {
		a.Logger.Error("activity create for %s: %s", ownerID, err)
		return renderError(ctx, ErrInternal)
	}

	return ctx.JSON(router.StatusCreated, created)
}

func (a *ActivityController) Show(ctx router.Context) error {
	ownerID, err := a.ownerID(ctx)
	if err != nil {
		return renderError(ctx, err)
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{"error": "invalid activity id"})
	}

	record, err := a.Repo.Activities().GetOwned(ctx.Context(), ownerID, id)
	if err != nil {
		return a.renderRepoError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

// ActivityPatchPayload updates only the fields the client sent
type ActivityPatchPayload struct {
	Variant  *string       `form:"variant" json:"variant"`
	Title    *string       `form:"title" json:"title"`
	Group    *string       `form:"group" json:"group"`
	Notes    *string       `form:"notes" json:"notes"`
	Start    *time.Time    `form:"start" json:"start"`
	End      *time.Time    `form:"end" json:"end"`
	Timezone *int          `form:"timezone" json:"timezone"`
	Data     *ActivityData `form:"data" json:"data"`
}

// apply overlays the provided fields onto the record
func (r ActivityPatchPayload) apply(record *Activity) error {
	if r.Variant != nil {
		variant, err := ParseActivityVariant(*r.Variant)
		if err != nil {
			return err
		}
		record.Variant = variant
	}
	if r.Title != nil {
		record.Title = *r.Title
	}
	if r.Group != nil {
		record.Group = *r.Group
	}
	if r.Notes != nil {
		record.Notes = *r.Notes
	}
	if r.Start != nil {
		record.Start = *r.Start
	}
	if r.End != nil {
		record.End = *r.End
	}
	if r.Timezone != nil {
		record.Timezone = *r.Timezone
	}
	if r.Data != nil {
		if err := r.Data.Validate(); err != nil {
			return err
		}
		record.Data = r.Data
	}
	return nil
}

func (a *ActivityController) Update(ctx router.Context) error {
	ownerID, err := a.ownerID(ctx)
	if err != nil {
		return renderError(ctx, err)
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{"error": "invalid activity id"})
	}

	payload := new(ActivityPatchPayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("activity update parse payload: %s", err)
		return renderValidationError(ctx, err)
	}

	record, err := a.Repo.Activities().GetOwned(ctx.Context(), ownerID, id)
	if err != nil {
		return a.renderRepoError(ctx, err)
	}

	if err := payload.apply(record); err != nil {
		return renderValidationError(ctx, err)
	}

	updated, err := a.Repo.Activities().UpdateOwned(ctx.Context(), ownerID, record)
	if err != nil {
		return a.renderRepoError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, updated)
}

func (a *ActivityController) Delete(ctx router.Context) error {
	ownerID, err := a.ownerID(ctx)
	if err != nil {
		return renderError(ctx, err)
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{"error": "invalid activity id"})
	}

	if err := a.Repo.Activities().DeleteOwned(ctx.Context(), ownerID, id); err != nil {
		return a.renderRepoError(ctx, err)
	}

	return ctx.Status(router.StatusNoContent).SendString("")
}

// ownerID resolves the authenticated subject to its user ID
func (a *ActivityController) ownerID(ctx router.Context) (uuid.UUID, error) {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	ownerID, err := uuid.Parse(claims.Subject())
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return ownerID, nil
}

func (a *ActivityController) renderRepoError(ctx router.Context, err error) error {
	if repository.IsRecordNotFound(err) {
		return ctx.JSON(router.StatusNotFound, map[string]string{"error": "activity not found"})
	}
	a.Logger.Error("activity repository error: %s", err)
	return renderError(ctx, ErrInternal)
}

// parseActivityFilters builds ActivityFilters from query parameters. Dates
// accept RFC 3339.
func parseActivityFilters(ctx router.Context) (ActivityFilters, error) {
	filters := ActivityFilters{
		Title: ctx.Query("title"),
		Group: ctx.Query("group"),
	}

	if raw := ctx.Query("variant"); raw != "" {
		variant, err := ParseActivityVariant(raw)
		if err != nil {
			return filters, err
		}
		filters.Variant = variant
	}

	if raw := ctx.Query("start"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, err
		}
		filters.Start = &start
	}

	if raw := ctx.Query("end"); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, err
		}
		filters.End = &end
	}

	return filters, nil
}
