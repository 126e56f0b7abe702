package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/JodusNodus/apartment-eagle/internal/model"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single watch cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initCycle(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		report := env.Runner.RunOnce(ctx)
		if report.Status == model.CycleStatusFailed {
			return eris.Errorf("cycle %s failed: %s", report.ID, report.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
