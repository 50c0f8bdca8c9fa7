package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-lock/config"
)

var rootCmd = &cobra.Command{
	Use:   "lock",
	Short: "Best-effort distributed lock over object storage",
	Long:  "A best-effort distributed lock that serializes access to a shared resource across independent processes via a single object in an S3-compatible bucket, with Redis and MySQL as alternative backends.",
}

var (
	flagKey             string
	flagPollInterval    int
	flagDeadlockTimeout int
)

// init registers the flags shared by all subcommands.
func init() {
	rootCmd.PersistentFlags().StringVar(&flagKey, "key", "", "lock object key (overrides LOCK_KEY)")
	rootCmd.PersistentFlags().IntVar(&flagPollInterval, "poll-interval", 0, "seconds between acquisition attempts (overrides LOCK_POLL_INTERVAL)")
	rootCmd.PersistentFlags().IntVar(&flagDeadlockTimeout, "deadlock-timeout", 0, "seconds before an existing lock is treated as abandoned (overrides LOCK_DEADLOCK_TIMEOUT)")
}

// Execute runs the root Cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the environment configuration and applies flag
// overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("key") {
		cfg.LockKey = flagKey
	}
	if cmd.Flags().Changed("poll-interval") {
		cfg.LockPollInterval = secondsDuration(flagPollInterval)
	}
	if cmd.Flags().Changed("deadlock-timeout") {
		cfg.LockDeadlockTimeout = secondsDuration(flagDeadlockTimeout)
	}
	return cfg, nil
}
