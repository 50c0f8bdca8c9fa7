package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMySQLLockerAcquireRelease(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	locker := NewMySQLLocker(db)
	mock.ExpectQuery("SELECT GET_LOCK").
		WithArgs("lock-key").
		WillReturnRows(sqlmock.NewRows([]string{"acquired"}).AddRow(1))

	token, err := locker.Acquire(context.Background(), "lock-key", time.Hour)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token, got empty string")
	}

	mock.ExpectExec("SELECT RELEASE_LOCK").
		WithArgs("lock-key").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := locker.Release(context.Background(), "lock-key", token); err != nil {
		t.Fatalf("Release: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMySQLLockerContended(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	locker := NewMySQLLocker(db)
	mock.ExpectQuery("SELECT GET_LOCK").
		WithArgs("lock-key").
		WillReturnRows(sqlmock.NewRows([]string{"acquired"}).AddRow(0))

	if _, err := locker.Acquire(context.Background(), "lock-key", time.Hour); !errors.Is(err, ErrContended) {
		t.Fatalf("expected ErrContended, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMySQLLockerStaleReleaseKeepsLock(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	locker := NewMySQLLocker(db)
	mock.ExpectQuery("SELECT GET_LOCK").
		WithArgs("lock-key").
		WillReturnRows(sqlmock.NewRows([]string{"acquired"}).AddRow(1))

	token, err := locker.Acquire(context.Background(), "lock-key", time.Hour)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	// No RELEASE_LOCK expectation: a stale token must not free the lock.
	if err := locker.Release(context.Background(), "lock-key", "wrong-token"); !errors.Is(err, ErrStaleRelease) {
		t.Fatalf("expected ErrStaleRelease, got %v", err)
	}

	mock.ExpectExec("SELECT RELEASE_LOCK").
		WithArgs("lock-key").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := locker.Release(context.Background(), "lock-key", token); err != nil {
		t.Fatalf("Release with owning token: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMySQLLockerReleaseWithoutAcquire(t *testing.T) {
	t.Parallel()

	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	locker := NewMySQLLocker(db)
	if err := locker.Release(context.Background(), "lock-key", "never-acquired"); err != nil {
		t.Fatalf("Release without acquire: %v", err)
	}
}
