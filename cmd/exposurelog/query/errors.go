package query

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFilter means a caller passed a filter key the table does not
	// declare. Keys come from code, not users, so this is an internal fault.
	ErrUnknownFilter = errors.New("unknown filter key")

	// ErrInvalidArg means a filter value had the wrong Go type for its key.
	ErrInvalidArg = errors.New("invalid filter argument")
)

// ValidationError is a client-supplied value the query cannot accept,
// such as an unknown order_by field or a negative offset.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func validationErrorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
