package errval

import (
	"errors"
)

var (
	ErrInternal        = errors.New("internal server error")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidTaskKind = errors.New("invalid task kind")
	ErrInvalidPayload  = errors.New("invalid task payload")
	ErrLockNotAcquired = errors.New("lock is held by another worker")
)

// IsPermanent reports whether retrying a task that failed with err can never succeed.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidTaskKind) || errors.Is(err, ErrInvalidPayload)
}
