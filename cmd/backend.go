package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-lock/app/lock"
	"github.com/vibast-solutions/ms-go-lock/app/store"
	"github.com/vibast-solutions/ms-go-lock/config"
)

// buildLocker selects and wires the lock backend from configuration. The
// returned cleanup closes whatever client the backend holds.
func buildLocker(ctx context.Context, cfg *config.Config) (lock.Locker, func(), error) {
	switch strings.ToLower(cfg.LockBackend) {
	case "", "s3":
		loadOpts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.AWSRegion),
		}
		if cfg.S3AccessKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("load AWS config: %w", err)
		}
		st := store.NewS3Store(awsCfg, cfg.S3Host, cfg.S3Bucket)
		return lock.NewObjectLocker(st, cfg.LockSettleDelay, logrus.StandardLogger()), func() {}, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return lock.NewRedisLocker(rdb), func() { _ = rdb.Close() }, nil
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		return lock.NewMySQLLocker(db), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported LOCK_BACKEND: %s", cfg.LockBackend)
	}
}

// logStartup mirrors the connection parameters into the log before any
// store round-trip.
func logStartup(cmd *cobra.Command, cfg *config.Config) {
	logrus.WithFields(logrus.Fields{
		"backend": cfg.LockBackend,
		"host":    cfg.S3Host,
		"bucket":  cfg.S3Bucket,
		"key":     cfg.LockKey,
	}).Info(cmd.Name())
}

func secondsDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
