package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the message, or the exposure of a non-new message, does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBadRequest means the request is invalid, e.g. a malformed tag or obs_id.
	ErrBadRequest = errors.New("bad request")
)

func badRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
