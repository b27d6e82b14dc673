package services

import "errors"

var (
	// ErrNotFound is returned when a record does not exist or is not owned
	// by the requesting user. The two cases are deliberately merged.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrInvalidCredentials is returned for any login failure, regardless
	// of whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports a user-correctable problem with a single input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
