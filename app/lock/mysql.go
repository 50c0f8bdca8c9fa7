package lock

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MySQLLocker is an alternative lock backend on MySQL advisory locks.
// Each held lock pins a dedicated connection; the server releases the
// advisory lock itself when that connection dies, so a crashed holder
// cannot wedge the resource and ttl plays no role here.
type MySQLLocker struct {
	db   *sql.DB
	mu   sync.Mutex
	held map[string]*heldLock
}

type heldLock struct {
	conn  *sql.Conn
	token string
}

// NewMySQLLocker constructs a MySQL advisory-lock backend.
func NewMySQLLocker(db *sql.DB) *MySQLLocker {
	return &MySQLLocker{
		db:   db,
		held: make(map[string]*heldLock),
	}
}

// Acquire obtains the named advisory lock without blocking and returns a
// fresh owner token on success.
func (l *MySQLLocker) Acquire(ctx context.Context, key string, _ time.Duration) (string, error) {
	l.mu.Lock()
	if _, exists := l.held[key]; exists {
		l.mu.Unlock()
		return "", ErrContended
	}
	l.mu.Unlock()

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return "", &StoreUnavailableError{Err: err}
	}

	var acquired int
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, 0)", key).Scan(&acquired); err != nil {
		_ = conn.Close()
		return "", &StoreUnavailableError{Err: err}
	}
	if acquired != 1 {
		_ = conn.Close()
		return "", ErrContended
	}

	token := uuid.NewString()
	l.mu.Lock()
	l.held[key] = &heldLock{conn: conn, token: token}
	l.mu.Unlock()

	return token, nil
}

// Release frees the named advisory lock and its connection if the token
// still owns it.
func (l *MySQLLocker) Release(ctx context.Context, key string, token string) error {
	l.mu.Lock()
	held, ok := l.held[key]
	if ok && held.token != token {
		l.mu.Unlock()
		return ErrStaleRelease
	}
	if ok {
		delete(l.held, key)
	}
	l.mu.Unlock()

	if !ok {
		return nil
	}

	defer held.conn.Close()
	if _, err := held.conn.ExecContext(ctx, "SELECT RELEASE_LOCK(?)", key); err != nil {
		return &StoreUnavailableError{Err: err}
	}
	return nil
}
