package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-lock/app/lock"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current lock holder",
	Long:  "Report whether the lock object exists and, if so, its owner token and age. Only supported by the s3 backend.",
	Run:   runStatus,
}

// init registers the status command.
func init() {
	rootCmd.AddCommand(statusCmd)
}

// runStatus inspects the lock object without contending for it.
func runStatus(cmd *cobra.Command, _ []string) {
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

	objectLocker, ok := locker.(*lock.ObjectLocker)
	if !ok {
		logrus.Fatalf("status is not supported by the %s backend", cfg.LockBackend)
	}

	held, err := objectLocker.Held(ctx, cfg.LockKey)
	if err != nil {
		logrus.WithError(err).Fatal("failed to check lock")
	}
	if !held {
		fmt.Println("unlocked")
		return
	}

	rec, err := objectLocker.Inspect(ctx, cfg.LockKey)
	if err != nil {
		logrus.WithError(err).Fatal("failed to read lock record")
	}
	if rec == nil {
		// The object exists but its body is unreadable; the next acquire
		// will overwrite it.
		fmt.Println("unlocked (malformed record)")
		return
	}

	fmt.Printf("held by %s for %s\n", rec.OwnerToken, time.Since(rec.AcquiredAt).Round(time.Second))
}
