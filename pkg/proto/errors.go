package proto

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of these and callers
// classify errors with errors.Is.
var (
	// ErrValidation is returned when a request is missing or has invalid input.
	ErrValidation = errors.New("validation error")
	// ErrConflict is returned when a unique resource already exists.
	ErrConflict = errors.New("conflict")
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the user is not authorized to perform action.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when an authenticated user does not own the resource.
	ErrForbidden = errors.New("forbidden")
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = NewError(ErrNotFound, "user not found")
	// ErrUserExist is returned when signing up with a registered email.
	ErrUserExist = NewError(ErrConflict, "user already exists, please login")
	// ErrOrgNotFound is returned when an organization is not found.
	ErrOrgNotFound = NewError(ErrNotFound, "organization not found")
	// ErrOrgExist is returned when an organization name is taken.
	ErrOrgExist = NewError(ErrConflict, "organization already exists")
	// ErrComponentNotFound is returned when a component is not found.
	ErrComponentNotFound = NewError(ErrNotFound, "component not found")
	// ErrVersionNotFound is returned when a component has no matching version.
	ErrVersionNotFound = NewError(ErrNotFound, "version not found")
	// ErrTokenNotFound is returned when a token is missing or belongs to
	// another user.
	ErrTokenNotFound = NewError(ErrUnauthorized, "token not found or unauthorized")
	// ErrInvalidToken is returned when a request carries no valid token.
	ErrInvalidToken = NewError(ErrUnauthorized, "invalid or missing token")
	// ErrInvalidPassword is returned when a password does not match.
	ErrInvalidPassword = NewError(ErrUnauthorized, "invalid password")
	// ErrOAuthOnly is returned on password login to an account that only
	// authenticates through OAuth.
	ErrOAuthOnly = NewError(ErrUnauthorized, "please login via GitHub")
	// ErrAdminRequired is returned when a non admin calls an admin operation.
	ErrAdminRequired = NewError(ErrUnauthorized, "admin access required")
	// ErrEmailReserved is returned when registering the admin email before
	// the admin account is provisioned.
	ErrEmailReserved = NewError(ErrForbidden, "this email is reserved")
	// ErrPasswordRequired is returned when a new account has no password.
	ErrPasswordRequired = NewError(ErrValidation, "password required for new users")
)

// Error is a domain error of a given kind. Its message is safe to show to
// clients.
type Error struct {
	Kind    error
	Message string
}

// NewError returns a new domain error of the given kind.
func NewError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Error implements error.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the error kind.
func (e *Error) Unwrap() error {
	return e.Kind
}
