package tracker

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// SocialVerifier checks a third party ID token and returns the identity it
// vouched for
type SocialVerifier interface {
	VerifyIDToken(ctx context.Context, raw string) (*SocialAccount, error)
}

// AuthControllerRoutes holds the paths the controller registers. Paths are
// relative to whatever group the caller mounts the controller on.
type AuthControllerRoutes struct {
	Login    string
	Register string
	Google   string
	Logout   string
	Me       string
}

type AuthController struct {
	Debug      bool
	Logger     Logger
	Repo       RepositoryManager
	Auther     *Auther
	Sessions   *SessionManager
	Cookies    SessionCookies
	Social     SocialVerifier
	Routes     *AuthControllerRoutes
	ContextKey string
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		ContextKey: "session",
		Routes: &AuthControllerRoutes{
			Login:    "/auth/login",
			Register: "/auth/register",
			Google:   "/auth/google",
			Logout:   "/auth/logout",
			Me:       "/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	if c.Sessions == nil {
		panic("Missing SessionManager in auth controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerSessions(sessions *SessionManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Sessions = sessions
		return c
	}
}

func WithControllerCookies(cookies SessionCookies) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Cookies = cookies
		return c
	}
}

func WithControllerSocial(social SocialVerifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Social = social
		return c
	}
}

// RegisterAuthRoutes mounts the auth surface on the given router. The session
// middleware protecting Me and Logout is the caller's to attach.
func RegisterAuthRoutes[T any](app router.Router[T], controller *AuthController, protected router.MiddlewareFunc) {
	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("auth.register")

	if controller.Social != nil {
		app.Post(controller.Routes.Google, controller.GoogleSignIn).
			SetName("auth.google")
	}

	app.Post(controller.Routes.Logout, protected(controller.Logout)).
		SetName("auth.logout")

	app.Get(controller.Routes.Me, protected(controller.Me)).
		SetName("auth.me")
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %s", err)
		return renderError(ctx, ErrMissingCredentials)
	}

	if err := payload.Validate(); err != nil {
		return renderValidationError(ctx, err)
	}

	if a.Debug {
		a.Logger.Debug("login payload: %s", print.MaybePrettyJSON(payload))
	}

	user, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return renderError(ctx, err)
	}

	return a.startSession(ctx, user, router.StatusOK)
}

// RegistrationCreatePayload is the registration payload
type RegistrationCreatePayload struct {
	Email      string `form:"email" json:"email"`
	Password   string `form:"password" json:"password"`
	GivenName  string `form:"given_name" json:"givenName"`
	FamilyName string `form:"family_name" json:"familyName"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.GivenName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.FamilyName, validation.Required, validation.Length(1, 200)),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload: %s", err)
		return renderError(ctx, ErrMissingCredentials)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register validate payload: %s", err)
		return renderValidationError(ctx, err)
	}

	user, err := a.Auther.Register(ctx.Context(), RegisterInput{
		Email:      payload.Email,
		Password:   payload.Password,
		GivenName:  payload.GivenName,
		FamilyName: payload.FamilyName,
	})
	if err != nil {
		return renderError(ctx, err)
	}

	return a.startSession(ctx, user, router.StatusCreated)
}

// GoogleSignInPayload carries the raw ID token from Google's sign in widget
type GoogleSignInPayload struct {
	Credential string `form:"credential" json:"credential"`
}

// Validate will run validation rules
func (r GoogleSignInPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Credential, validation.Required),
	)
}

func (a *AuthController) GoogleSignIn(ctx router.Context) error {
	payload := new(GoogleSignInPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("google sign in parse payload: %s", err)
		return renderError(ctx, ErrMissingCredentials)
	}

	if err := payload.Validate(); err != nil {
		return renderValidationError(ctx, err)
	}

	account, err := a.Social.VerifyIDToken(ctx.Context(), payload.Credential)
	if err != nil {
		a.Logger.Error("google sign in verify token: %s", err)
		return renderError(ctx, ErrInvalidToken)
	}

	user, err := a.Auther.SocialLogin(ctx.Context(), *account)
	if err != nil {
		return renderError(ctx, err)
	}

	return a.startSession(ctx, user, router.StatusOK)
}

// Logout revokes every outstanding token for the subject and clears both
// credential cookies
func (a *AuthController) Logout(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if ok {
		if err := a.Sessions.RevokeAll(ctx.Context(), claims.Subject()); err != nil {
			a.Logger.Error("logout revoke tokens for %s: %s", claims.Subject(), err)
			return renderError(ctx, err)
		}
	}

	a.Cookies.Clear(ctx)

	return ctx.Status(router.StatusNoContent).SendString("")
}

// Me returns the profile of the authenticated subject
func (a *AuthController) Me(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return renderError(ctx, ErrInvalidToken)
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), claims.Subject())
	if err != nil {
		a.Logger.Error("me lookup %s: %s", claims.Subject(), err)
		return renderError(ctx, ErrInvalidToken)
	}

	return ctx.JSON(router.StatusOK, NewProfile(user))
}

// startSession mints a credential pair for the user, attaches the cookies,
// and renders the profile
func (a *AuthController) startSession(ctx router.Context, user *User, status int) error {
	pair, err := a.Sessions.IssuePair(ctx.Context(), user.ID.String())
	if err != nil {
		a.Logger.Error("start session for %s: %s", user.ID, err)
		return renderError(ctx, err)
	}

	a.Cookies.Attach(ctx, pair)

	return ctx.JSON(status, NewProfile(user))
}

// renderError maps an error to its JSON body and status code
func renderError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return ctx.JSON(HTTPStatus(err), map[string]string{"error": richErr.Message})
	}
	return ctx.JSON(router.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// renderValidationError surfaces ozzo's field errors as a 400
func renderValidationError(ctx router.Context, err error) error {
	if fields, ok := err.(validation.Errors); ok {
		messages := map[string]string{}
		for name, ferr := range fields {
			messages[name] = ferr.Error()
		}
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": messages,
		})
	}
	return ctx.JSON(router.StatusBadRequest, map[string]string{"error": err.Error()})
}
