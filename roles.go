package tracker

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Role is the user's role
type Role string

const (
	// RoleUser is the default account role
	RoleUser Role = "user"
	// RoleAdmin can operate on other accounts
	RoleAdmin Role = "admin"
)

// ParseRole maps a stored or submitted string to a Role. Unknown values are an
// error, never a panic; legacy records use title case so matching is
// case-insensitive.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	}
	return "", errors.New("invalid role", errors.CategoryBadInput).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{"role": s})
}

// IsAdmin reports whether the role grants admin access
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// String implements fmt.Stringer
func (r Role) String() string {
	return string(r)
}
