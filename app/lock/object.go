package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-lock/app/store"
)

// DefaultSettleDelay is how long Acquire waits between writing its record
// and confirming it survived. Writers that read the key before our put
// get that long to finish their own puts, so most races are observed.
const DefaultSettleDelay = 2 * time.Second

// ObjectLocker implements a best-effort lock over a single object in an
// object store. The store offers no conditional writes, so acquisition
// uses a read-write-reread protocol: check the current record, write a
// fresh one, then re-read and verify our token survived. Two writers can
// still interleave between their confirm reads; the protocol narrows the
// race window, it does not close it.
type ObjectLocker struct {
	store       store.ObjectStore
	settleDelay time.Duration
	log         *logrus.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewObjectLocker builds a locker over an object store. A negative
// settleDelay falls back to DefaultSettleDelay.
func NewObjectLocker(st store.ObjectStore, settleDelay time.Duration, log *logrus.Logger) *ObjectLocker {
	if settleDelay < 0 {
		settleDelay = DefaultSettleDelay
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ObjectLocker{
		store:       st,
		settleDelay: settleDelay,
		log:         log,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// Acquire runs a single acquisition attempt. A record younger than ttl
// belongs to an active holder and fails the attempt with ErrContended; an
// older record is treated as abandoned and overwritten, with no
// coordination with the original holder. A superseded holder only learns
// of the override when its release reports ErrStaleRelease.
func (l *ObjectLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	rec, err := l.read(ctx, key)
	if err != nil {
		return "", err
	}
	if rec != nil {
		age := l.now().Sub(rec.AcquiredAt)
		if age < ttl {
			l.log.WithFields(logrus.Fields{"holder": rec.OwnerToken, "age": age}).
				Warn("failed to acquire lock: currently held")
			return "", ErrContended
		}
		l.log.WithFields(logrus.Fields{"holder": rec.OwnerToken, "age": age}).
			Warn("overriding abandoned lock")
	}

	token := uuid.NewString()
	body, err := EncodeRecord(Record{OwnerToken: token, AcquiredAt: l.now()})
	if err != nil {
		return "", err
	}
	if err := l.store.Put(ctx, key, body); err != nil {
		return "", &StoreUnavailableError{Err: err}
	}

	if err := l.sleep(ctx, l.settleDelay); err != nil {
		return "", err
	}

	confirmed, err := l.read(ctx, key)
	if err != nil {
		return "", err
	}
	if confirmed == nil || confirmed.OwnerToken != token {
		return "", ErrContended
	}
	return token, nil
}

// Release deletes the lock object if the token still owns it. It is
// idempotent: an absent record is a no-op success, so callers can release
// unconditionally during cleanup.
func (l *ObjectLocker) Release(ctx context.Context, key string, token string) error {
	rec, err := l.read(ctx, key)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	if rec.OwnerToken != token {
		return ErrStaleRelease
	}
	if err := l.store.Delete(ctx, key); err != nil {
		return &StoreUnavailableError{Err: err}
	}
	return nil
}

// Held reports whether a lock object currently exists, without reading
// its body or judging staleness.
func (l *ObjectLocker) Held(ctx context.Context, key string) (bool, error) {
	_, err := l.store.Head(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &StoreUnavailableError{Err: err}
	}
	return true, nil
}

// Inspect returns the current record, or nil when the lock is free.
func (l *ObjectLocker) Inspect(ctx context.Context, key string) (*Record, error) {
	return l.read(ctx, key)
}

// read fetches and decodes the current record. A missing object and a
// malformed body both come back as nil: the lock is treated as free,
// favoring availability over strictness.
func (l *ObjectLocker) read(ctx context.Context, key string) (*Record, error) {
	body, err := l.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreUnavailableError{Err: err}
	}

	rec, err := DecodeRecord(body)
	if err != nil {
		l.log.WithError(err).Warn("malformed lock record, treating lock as free")
		return nil, nil
	}
	return &rec, nil
}
