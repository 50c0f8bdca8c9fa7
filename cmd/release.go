package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-lock/app/lock"
)

var releaseCmd = &cobra.Command{
	Use:   "release <token>",
	Short: "Release the lock",
	Long:  "Release the lock if the given owner token still holds it. Safe to call unconditionally during cleanup: an absent or superseded lock is a no-op.",
	Args:  cobra.ExactArgs(1),
	Run:   runRelease,
}

// init registers the release command.
func init() {
	rootCmd.AddCommand(releaseCmd)
}

// runRelease validates ownership and deletes the lock object.
func runRelease(cmd *cobra.Command, args []string) {
	token := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	locker, cleanup, err := buildLocker(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to build lock backend")
	}
	defer cleanup()

	logStartup(cmd, cfg)

	if err := locker.Release(ctx, cfg.LockKey, token); err != nil {
		if errors.Is(err, lock.ErrStaleRelease) {
			logrus.Warn("lock not owned by this token, leaving it in place")
			return
		}
		logrus.WithError(err).Fatal("failed to release lock")
	}

	logrus.Info("lock released")
}
