package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tanelpoder/xtop-engine/internal/config"
	"github.com/tanelpoder/xtop-engine/internal/engine"
	"github.com/tanelpoder/xtop-engine/internal/mcpadapter"
	"github.com/tanelpoder/xtop-engine/internal/xlog"
)

func newMCPCmd() *cobra.Command {
	var datadir string
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start a Model Context Protocol server exposing run_query",
		Long: `Starts a JSON-RPC server implementing the Model Context Protocol (MCP)
over stdio, so an AI agent can drive the query engine interactively.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := config.Default()
			if datadir != "" {
				cfg.Datadir = datadir
			}
			cfg.Debug = debug

			log, err := xlog.New(cfg.Debug, "")
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}

			eng, err := engine.Open(cfg, log)
			if err != nil {
				return fmt.Errorf("open engine: %w", err)
			}
			defer eng.Close()

			srv := mcpadapter.NewServer(version, eng)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVarP(&datadir, "datadir", "d", "", "data directory (or env XCAPTURE_DATADIR)")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}
