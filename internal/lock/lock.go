// Package lock provides keyed mutual exclusion for read-modify-write sections.
package lock

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when the lock could not be acquired before the context ended.
var ErrLockTimeout = errors.New("lock wait timed out")

// Unlock releases a previously acquired lock.
type Unlock func()

// Locker serializes critical sections identified by key.
type Locker interface {
	// Lock blocks until the key is acquired or ctx is done.
	Lock(ctx context.Context, key string) (Unlock, error)
}
