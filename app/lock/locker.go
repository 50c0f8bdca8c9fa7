package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrContended = errors.New("lock held by another process")
var ErrStaleRelease = errors.New("lock no longer owned by this token")

// StoreUnavailableError wraps a transient backend failure. Attempts that
// fail with it are safe to retry.
type StoreUnavailableError struct {
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("lock store unavailable: %v", e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// Locker abstracts distributed locking implementations. Contenders are
// independent processes; the only shared state lives in the backend.
type Locker interface {
	// Acquire attempts to lock a key, honoring an existing holder for at
	// most ttl before treating it as abandoned. On success it returns a
	// fresh owner token that must be presented to Release.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Release frees the lock for the given key if the token still owns
	// it. Releasing an absent lock is a no-op; releasing a lock owned by
	// a different token returns ErrStaleRelease and leaves it in place.
	Release(ctx context.Context, key string, token string) error
}

// sleepContext sleeps for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
