package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JodusNodus/apartment-eagle/internal/pipeline"
	"github.com/JodusNodus/apartment-eagle/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the health server and the watch loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initCycle(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.New(env.Runner).ListenAndServe(gCtx, port)
		})
		g.Go(func() error {
			lo, hi := scheduleBounds()
			pipeline.Watch(gCtx, env.Runner, lo, hi)
			return context.Cause(gCtx)
		})

		if err := g.Wait(); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
