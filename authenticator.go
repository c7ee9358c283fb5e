package tracker

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// RegisterInput is what a new account needs
type RegisterInput struct {
	Email      string
	Password   string
	GivenName  string
	FamilyName string
}

// SocialAccount is the verified identity a social provider vouched for
type SocialAccount struct {
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
	Picture       string
}

// UserStore is the slice of the users repository the authenticator needs
type UserStore interface {
	GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error)
	Register(ctx context.Context, user *User) (*User, error)
	GetOrCreate(ctx context.Context, record *User) (*User, error)
}

// Auther verifies credentials against the user store
type Auther struct {
	users  UserStore
	logger Logger
}

// NewAuthenticator creates an Auther backed by the users repository
func NewAuthenticator(users UserStore) *Auther {
	return &Auther{
		users:  users,
		logger: defLogger{},
	}
}

// WithLogger sets the logger
func (a *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Login verifies an email/password pair. A missing account and a wrong
// password are the same error so responses never reveal which emails exist.
func (a *Auther) Login(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrWrongCredentials
		}
		a.logger.Error("Login user lookup failed: %s", err)
		return nil, errors.Wrap(err, ErrInternal.Category, ErrInternal.Message).
			WithTextCode(ErrInternal.TextCode)
	}

	if !user.Active {
		a.logger.Warn("Login attempt on inactive account %s", user.ID)
		return nil, ErrForbidden
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, err
	}

	return user, nil
}

// Register creates a new unverified account with a bcrypt hashed password
func (a *Auther) Register(ctx context.Context, input RegisterInput) (*User, error) {
	if _, err := a.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailRegistered
	} else if !repository.IsRecordNotFound(err) {
		a.logger.Error("Register user lookup failed: %s", err)
		return nil, errors.Wrap(err, ErrInternal.Category, ErrInternal.Message).
			WithTextCode(ErrInternal.TextCode)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := a.users.Register(ctx, &User{
		Email:        input.Email,
		PasswordHash: hash,
		GivenName:    input.GivenName,
		FamilyName:   input.FamilyName,
		Role:         RoleUser,
	})
	if err != nil {
		a.logger.Error("Register create failed: %s", err)
		return nil, errors.Wrap(err, ErrInternal.Category, ErrInternal.Message).
			WithTextCode(ErrInternal.TextCode)
	}

	return user, nil
}

// SocialLogin resolves a provider-verified identity to a local account,
// creating one on first sight. Accounts created this way get a random
// password hash no typed password can ever match.
func (a *Auther) SocialLogin(ctx context.Context, account SocialAccount) (*User, error) {
	if account.Email == "" {
		return nil, ErrInvalidToken
	}

	user, err := a.users.GetOrCreate(ctx, &User{
		Email:        account.Email,
		GivenName:    account.GivenName,
		FamilyName:   account.FamilyName,
		ImageURL:     account.Picture,
		Verified:     account.EmailVerified,
		PasswordHash: RandomPasswordHash(),
		Role:         RoleUser,
	})
	if err != nil {
		a.logger.Error("SocialLogin get or create failed: %s", err)
		return nil, errors.Wrap(err, ErrInternal.Category, ErrInternal.Message).
			WithTextCode(ErrInternal.TextCode)
	}

	if !user.Active {
		a.logger.Warn("SocialLogin attempt on inactive account %s", user.ID)
		return nil, ErrForbidden
	}

	return user, nil
}
