package tracker

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          Role       `bun:"role,notnull" json:"role,omitempty"`
	GivenName     string     `bun:"given_name,notnull" json:"given_name,omitempty"`
	FamilyName    string     `bun:"family_name,notnull" json:"family_name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"password_hash,omitempty"`
	Active        bool       `bun:"active,notnull" json:"active,omitempty"`
	Verified      bool       `bun:"verified" json:"verified,omitempty"`
	ImageURL      string     `bun:"image_url" json:"image_url,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Profile is the user projection the API returns. It never carries the
// password hash.
type Profile struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Verified   bool      `json:"verified"`
	GivenName  string    `json:"givenName"`
	FamilyName string    `json:"familyName"`
	ImageURL   string    `json:"img"`
}

// NewProfile projects a user record into its public shape
func NewProfile(user *User) Profile {
	if user == nil {
		return Profile{}
	}
	return Profile{
		ID:         user.ID,
		Email:      user.Email,
		Role:       user.Role,
		Verified:   user.Verified,
		GivenName:  user.GivenName,
		FamilyName: user.FamilyName,
		ImageURL:   user.ImageURL,
	}
}

// LedgerEntry records an issued token jti so it can be looked up, consumed,
// or blacklisted later
type LedgerEntry struct {
	bun.BaseModel `bun:"table:token_ledger,alias:tkl"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	JTI           string     `bun:"jti,notnull,unique" json:"jti,omitempty"`
	Kind          TokenKind  `bun:"kind,notnull" json:"kind,omitempty"`
	Blacklisted   bool       `bun:"blacklisted,notnull" json:"blacklisted,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// NewLedgerEntry builds a ledger record from issued token claims
func NewLedgerEntry(claims *TokenClaims) (*LedgerEntry, error) {
	if claims == nil {
		return nil, errors.New("claims must not be nil", errors.CategoryInternal)
	}

	userID, err := uuid.Parse(claims.Subject())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "token subject is not a valid user id")
	}

	return &LedgerEntry{
		ID:        uuid.New(),
		UserID:    userID,
		JTI:       claims.TokenID(),
		Kind:      claims.Kind(),
		ExpiresAt: claims.Expires(),
	}, nil
}

// Activity is a tracked block of time owned by a single user
type Activity struct {
	bun.BaseModel `bun:"table:activities,alias:act"`
	ID            uuid.UUID       `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID       `bun:"user_id,notnull,type:uuid" json:"user,omitempty"`
	Variant       ActivityVariant `bun:"variant,notnull" json:"variant,omitempty"`
	Title         string          `bun:"title,notnull" json:"title,omitempty"`
	Group         string          `bun:"activity_group" json:"group,omitempty"`
	Notes         string          `bun:"notes" json:"notes,omitempty"`
	Start         time.Time       `bun:"start_at,notnull" json:"start"`
	End           time.Time       `bun:"end_at,notnull" json:"end"`
	Timezone      int             `bun:"timezone" json:"timezone"`
	Data          *ActivityData   `bun:"data,nullzero" json:"data,omitempty"`
	CreatedAt     *time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time      `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}
