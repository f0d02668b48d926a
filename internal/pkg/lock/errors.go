package lock

import "errors"

var (
	// ErrLockTimeout is returned when a guard cannot be acquired before the deadline.
	ErrLockTimeout = errors.New("lock acquisition timeout")
)
