package tracker

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeMissingCredentials = "missing_credentials"
	TextCodeWrongCredentials   = "wrong_credentials"
	TextCodeInvalidToken       = "invalid_token"
	TextCodeTokenExpired       = "token_expired"
	TextCodeForbidden          = "forbidden"
	TextCodeEmailRegistered    = "email_registered"
	TextCodeInternal           = "internal_error"
)

// ErrMissingCredentials is returned when a request carries no credentials at all.
var ErrMissingCredentials = errors.New("missing credentials", errors.CategoryBadInput).
	WithTextCode(TextCodeMissingCredentials).
	WithCode(errors.CodeBadRequest)

// ErrWrongCredentials is returned when an identifier/password pair does not verify.
var ErrWrongCredentials = errors.New("wrong credentials", errors.CategoryAuth).
	WithTextCode(TextCodeWrongCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidToken is returned when a token fails signature, shape, or subject checks.
var ErrInvalidToken = errors.New("invalid token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a token verifies but is past its expiry.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when a credential is blacklisted or its session revoked.
var ErrForbidden = errors.New("forbidden", errors.CategoryAuth).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrEmailRegistered is returned when registering an email that already has an account.
var ErrEmailRegistered = errors.New("email already registered", errors.CategoryValidation).
	WithTextCode(TextCodeEmailRegistered).
	WithCode(errors.CodeConflict)

// ErrInternal is the catch-all for storage or crypto failures.
var ErrInternal = errors.New("internal error", errors.CategoryInternal).
	WithTextCode(TextCodeInternal).
	WithCode(errors.CodeInternal)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// HTTPStatus maps an error to the status code the API surfaces. Unrecognized
// errors are treated as internal.
func HTTPStatus(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return 500
	}

	switch richErr.TextCode {
	case TextCodeMissingCredentials:
		return 400
	case TextCodeWrongCredentials, TextCodeInvalidToken, TextCodeTokenExpired:
		return 401
	case TextCodeForbidden:
		return 403
	case TextCodeEmailRegistered:
		return 409
	}

	if richErr.Code > 0 {
		return richErr.Code
	}

	return 500
}
