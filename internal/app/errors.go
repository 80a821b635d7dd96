package app

import (
	"errors"
	"fmt"

	"focusbar/internal/focus"
)

var (
	ErrLocked    = errors.New("task list is locked during a focus session")
	ErrInvalid   = errors.New("invalid input")
	ErrNotFound  = errors.New("not found")
	ErrOutOfTurn = focus.ErrOutOfTurn
)

type NotFoundError struct {
	Kind string
	ID   int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Kind, e.ID)
}

func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// IsRejection reports whether err is one of the "state unchanged" results
// rather than an I/O failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrLocked) ||
		errors.Is(err, ErrInvalid) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrOutOfTurn) ||
		errors.Is(err, focus.ErrInvalidTransition)
}
