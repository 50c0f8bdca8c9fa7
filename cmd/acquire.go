package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-lock/app/lock"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Acquire the lock",
	Long:  "Attempt to acquire the lock, busy-waiting until it is free unless --wait=false. Prints the owner token on success; present that token to release.",
	Run:   runAcquire,
}

var flagWait bool

// init registers the acquire command.
func init() {
	acquireCmd.Flags().BoolVar(&flagWait, "wait", true, "busy-wait until the lock is acquired (overrides LOCK_WAIT)")
	rootCmd.AddCommand(acquireCmd)
}

// runAcquire wires the configured backend and drives acquisition.
func runAcquire(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	wait := cfg.LockWait
	if cmd.Flags().Changed("wait") {
		wait = flagWait
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	locker, cleanup, err := buildLocker(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to build lock backend")
	}
	defer cleanup()

	logStartup(cmd, cfg)

	waiter := lock.NewWaiter(locker, cfg.LockPollInterval, logrus.StandardLogger())
	token, err := waiter.Acquire(ctx, cfg.LockKey, cfg.LockDeadlockTimeout, wait)
	if err != nil {
		logrus.WithError(err).Fatal("failed to acquire lock")
	}

	logrus.WithField("token", token).Info("lock acquired")
	fmt.Println(token)
}
