package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	S3Host      string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	AWSRegion   string

	LockBackend         string
	LockKey             string
	LockWait            bool
	LockPollInterval    time.Duration
	LockDeadlockTimeout time.Duration
	LockSettleDelay     time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MySQLDSN string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		S3Host:      getEnv("S3_HOST", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		AWSRegion:   getEnv("AWS_REGION", "us-east-1"),

		LockBackend: getEnv("LOCK_BACKEND", "s3"),
		LockKey:     getEnv("LOCK_KEY", ".lockfile"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		MySQLDSN: getEnv("MYSQL_DSN", ""),
	}

	var err error
	if cfg.LockWait, err = getEnvBool("LOCK_WAIT", true); err != nil {
		return nil, err
	}
	if cfg.LockPollInterval, err = getEnvSeconds("LOCK_POLL_INTERVAL", 300); err != nil {
		return nil, err
	}
	if cfg.LockDeadlockTimeout, err = getEnvSeconds("LOCK_DEADLOCK_TIMEOUT", 10800); err != nil {
		return nil, err
	}
	if cfg.LockSettleDelay, err = getEnvSeconds("LOCK_SETTLE_DELAY", 2); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return parsed, nil
}

func getEnvSeconds(key string, defaultSeconds int) (time.Duration, error) {
	seconds, err := getEnvInt(key, defaultSeconds)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}
