package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JodusNodus/apartment-eagle/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "apartment-eagle",
	Short: "Watches real-estate agency sites for new rental listings",
	Long:  "Scrapes agency listing pages, detects new property URLs, classifies and evaluates them against your criteria with Claude, and emails the matches.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
