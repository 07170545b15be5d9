package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/ratingsim/internal/config"
	"github.com/nvandessel/ratingsim/internal/export"
	"github.com/nvandessel/ratingsim/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve the simulator as MCP tools over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout.

Tools: simulate_ratings, team_win_rate, expected_score and, unless --no-store
is given, list_runs, export_runs and import_runs. Exports are confined to
~/.ratingsim/exports/. Tool calls are audited to audit.jsonl in the trace
directory. Logs go to stderr so they never mix with the protocol stream.

Example MCP client entry:
  {"command": "ratingsim", "args": ["mcp-server"]}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			noStore, _ := cmd.Flags().GetBool("no-store")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			shutdown, err := setupTelemetry(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer shutdownTelemetry(shutdown, logger)

			serverCfg := &mcp.Config{
				Name:     "ratingsim",
				Version:  version,
				AuditDir: cfg.Logging.TraceDir,
				Logger:   logger,
			}
			if !noStore {
				serverCfg.StorePath = cfg.Store.Path
				serverCfg.ExportDir = export.Dir(config.Dir())
			}

			server, err := mcp.NewServer(serverCfg)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			logger.Info("mcp server starting", "version", version, "store", serverCfg.StorePath)
			if err := server.Run(cmd.Context()); err != nil && cmd.Context().Err() == nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Bool("no-store", false, "Do not open the results archive (disables save and list_runs)")

	return cmd
}
