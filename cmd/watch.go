package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JodusNodus/apartment-eagle/internal/pipeline"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run cycles continuously at a randomized interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initCycle(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		lo, hi := scheduleBounds()
		pipeline.Watch(ctx, env.Runner, lo, hi)
		return nil
	},
}

func scheduleBounds() (time.Duration, time.Duration) {
	lo := time.Duration(cfg.Schedule.IntervalMinutes) * time.Minute
	hi := time.Duration(cfg.Schedule.MaxIntervalMinutes) * time.Minute
	if lo <= 0 {
		lo = 30 * time.Minute
	}
	return lo, hi
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
