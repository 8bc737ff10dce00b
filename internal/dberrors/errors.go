package dberrors

import "errors"

var (
	ErrInvalidArgument = errors.New("tablekit: invalid argument")
	ErrIllegalState    = errors.New("tablekit: illegal state")
	ErrNotFound        = errors.New("tablekit: not found")
	ErrClosed          = errors.New("tablekit: closed")
)

// ActionNotAuthorizedError is returned by the database layer when
// table-level or row-level access is forbidden.
type ActionNotAuthorizedError struct {
	Message string
}

func (e *ActionNotAuthorizedError) Error() string {
	return "action not authorized: " + e.Message
}

// NotAuthorized builds an ActionNotAuthorizedError.
func NotAuthorized(msg string) error {
	return &ActionNotAuthorizedError{Message: msg}
}

// IsNotAuthorized reports whether err or anything it wraps is an ActionNotAuthorizedError.
func IsNotAuthorized(err error) bool {
	var nae *ActionNotAuthorizedError
	return errors.As(err, &nae)
}
