package lock

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultPollInterval is how long the waiter sleeps between attempts.
const DefaultPollInterval = 5 * time.Minute

// Waiter retries lock acquisition at a fixed interval. There is no
// fairness among waiters: a newcomer can win ahead of a process that has
// been polling longer.
type Waiter struct {
	locker   Locker
	interval time.Duration
	log      *logrus.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewWaiter builds a polling driver around a locker.
func NewWaiter(locker Locker, interval time.Duration, log *logrus.Logger) *Waiter {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Waiter{
		locker:   locker,
		interval: interval,
		log:      log,
		sleep:    sleepContext,
	}
}

// Acquire runs a single attempt when wait is false. When wait is true it
// keeps retrying until the lock is acquired or ctx is cancelled; both
// contention and transient store failures are absorbed between attempts.
// The waiter imposes no bound of its own, so a caller wanting bounded
// waiting must cancel ctx.
func (w *Waiter) Acquire(ctx context.Context, key string, ttl time.Duration, wait bool) (string, error) {
	for {
		token, err := w.locker.Acquire(ctx, key, ttl)
		if err == nil {
			return token, nil
		}
		if !wait || !retryable(err) {
			return "", err
		}

		var unavailable *StoreUnavailableError
		if errors.As(err, &unavailable) {
			w.log.WithError(err).Warn("lock store unavailable, will retry")
		}
		if err := w.sleep(ctx, w.interval); err != nil {
			return "", err
		}
	}
}

// retryable reports whether an acquisition failure is worth another
// attempt: contention and transient store failures are, everything else
// surfaces to the caller.
func retryable(err error) bool {
	var unavailable *StoreUnavailableError
	return errors.Is(err, ErrContended) || errors.As(err, &unavailable)
}
