//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vibast-solutions/ms-go-lock/app/lock"
	"github.com/vibast-solutions/ms-go-lock/app/store"
)

const (
	defaultEndpoint  = "http://localhost:9000"
	defaultAccessKey = "minioadmin"
	defaultSecretKey = "minioadmin"
	defaultBucket    = "lock-e2e"

	settleDelay = 200 * time.Millisecond
)

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// newLockStore connects to the MinIO/S3 endpoint under test, ensures the
// bucket exists, and returns a store scoped to it.
func newLockStore(t *testing.T) *store.S3Store {
	t.Helper()

	endpoint := envOrDefault("LOCK_E2E_S3_ENDPOINT", defaultEndpoint)
	accessKey := envOrDefault("LOCK_E2E_S3_ACCESS_KEY", defaultAccessKey)
	secretKey := envOrDefault("LOCK_E2E_S3_SECRET_KEY", defaultSecretKey)
	bucket := envOrDefault("LOCK_E2E_S3_BUCKET", defaultBucket)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		t.Fatalf("load AWS config: %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	if _, err := client.CreateBucket(context.Background(), &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if !errors.As(err, &owned) && !errors.As(err, &exists) {
			t.Fatalf("create bucket: %v", err)
		}
	}

	return store.NewS3Store(awsCfg, endpoint, bucket)
}

func cleanupKey(t *testing.T, st *store.S3Store, key string) {
	t.Helper()
	t.Cleanup(func() {
		_ = st.Delete(context.Background(), key)
	})
}

func TestLockLifecycle(t *testing.T) {
	st := newLockStore(t)
	locker := lock.NewObjectLocker(st, settleDelay, nil)
	ctx := context.Background()
	key := "e2e-lifecycle.lock"
	cleanupKey(t, st, key)

	first, err := locker.Acquire(ctx, key, time.Hour)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	if _, err := locker.Acquire(ctx, key, time.Hour); !errors.Is(err, lock.ErrContended) {
		t.Fatalf("expected ErrContended, got %v", err)
	}

	if err := locker.Release(ctx, key, first); err != nil {
		t.Fatalf("Release: %v", err)
	}

	second, err := locker.Acquire(ctx, key, time.Hour)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	if second == first {
		t.Fatalf("expected a fresh token, got %q twice", first)
	}

	if err := locker.Release(ctx, key, second); err != nil {
		t.Fatalf("final Release: %v", err)
	}
}

func TestDeadlockOverrideAndStaleRelease(t *testing.T) {
	st := newLockStore(t)
	locker := lock.NewObjectLocker(st, settleDelay, nil)
	ctx := context.Background()
	key := "e2e-override.lock"
	cleanupKey(t, st, key)

	ttl := 1 * time.Second
	tokenA, err := locker.Acquire(ctx, key, ttl)
	if err != nil {
		t.Fatalf("Acquire A: %v", err)
	}

	// Let A's record outlive the deadlock timeout, then take it over.
	time.Sleep(ttl + 500*time.Millisecond)

	tokenB, err := locker.Acquire(ctx, key, ttl)
	if err != nil {
		t.Fatalf("Acquire B over abandoned lock: %v", err)
	}

	if err := locker.Release(ctx, key, tokenA); !errors.Is(err, lock.ErrStaleRelease) {
		t.Fatalf("expected ErrStaleRelease for A, got %v", err)
	}

	rec, err := locker.Inspect(ctx, key)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if rec == nil || rec.OwnerToken != tokenB {
		t.Fatalf("expected B's record to survive, got %+v", rec)
	}

	if err := locker.Release(ctx, key, tokenB); err != nil {
		t.Fatalf("Release B: %v", err)
	}
}

func TestWaiterOutlastsHolder(t *testing.T) {
	st := newLockStore(t)
	locker := lock.NewObjectLocker(st, settleDelay, nil)
	ctx := context.Background()
	key := "e2e-waiter.lock"
	cleanupKey(t, st, key)

	token, err := locker.Acquire(ctx, key, time.Hour)
	if err != nil {
		t.Fatalf("Acquire holder: %v", err)
	}

	released := make(chan struct{})
	go func() {
		defer close(released)
		time.Sleep(2 * time.Second)
		if err := locker.Release(context.Background(), key, token); err != nil {
			t.Errorf("Release holder: %v", err)
		}
	}()

	waiter := lock.NewWaiter(locker, 500*time.Millisecond, nil)
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	waited, err := waiter.Acquire(waitCtx, key, time.Hour, true)
	if err != nil {
		t.Fatalf("Waiter Acquire: %v", err)
	}
	<-released

	if err := locker.Release(ctx, key, waited); err != nil {
		t.Fatalf("Release waiter: %v", err)
	}
}
