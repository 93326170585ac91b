package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmfmock/tmfmockd/pkg/client"
	"github.com/tmfmock/tmfmockd/pkg/config"
	"github.com/tmfmock/tmfmockd/pkg/engine"
	"github.com/tmfmock/tmfmockd/pkg/hub"
	"github.com/tmfmock/tmfmockd/pkg/logging"
	"github.com/tmfmock/tmfmockd/pkg/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		upstream   string
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server (stdio transport)",
		Long: `Start the Model Context Protocol server in stdio mode. Reads JSON-RPC
from stdin and writes responses to stdout; logs go to stderr.

With --upstream the tools are proxied to a running tmfmockd server.
With --config an embedded engine is started instead, so no separate
server process is needed.

Claude Desktop config:

  {
    "mcpServers": {
      "tmfmockd": {
        "command": "tmfmockd",
        "args": ["mcp", "--upstream", "http://localhost:4000"]
      }
    }
  }`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Logs must stay off stdout, which carries the protocol.
			log := logging.New(logging.Config{
				Level:  logging.ParseLevel(logLevel),
				Format: logging.FormatText,
				Output: os.Stderr,
			})

			var backend mcp.Backend
			switch {
			case configPath != "":
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				registry, err := cfg.BuildRegistry()
				if err != nil {
					return fmt.Errorf("building resource registry: %w", err)
				}
				eng, err := engine.New(registry,
					engine.WithLogger(log),
					engine.WithHubOptions(
						hub.WithQueueSize(cfg.Hub.QueueSize),
						hub.WithDeliveryTimeout(cfg.Hub.DeliveryTimeout()),
					),
				)
				if err != nil {
					return fmt.Errorf("building engine: %w", err)
				}
				defer eng.Close()
				backend = eng

			default:
				backend = client.New(upstream)
			}

			adapter := mcp.NewAdapter(backend, mcp.WithLogger(log))
			stdio := mcp.NewStdioServer(mcp.NewServer(adapter))
			stdio.SetLogger(log)
			return stdio.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&upstream, "upstream", "http://localhost:4000", "Base URL of a running tmfmockd server")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file for an embedded engine (instead of --upstream)")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level for stderr (debug, info, warn, error)")
	return cmd
}
