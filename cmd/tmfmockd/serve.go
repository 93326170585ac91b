package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmfmock/tmfmockd/pkg/config"
	"github.com/tmfmock/tmfmockd/pkg/engine"
	"github.com/tmfmock/tmfmockd/pkg/hub"
	"github.com/tmfmock/tmfmockd/pkg/logging"
	"github.com/tmfmock/tmfmockd/pkg/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var (
		configPath string
		host       string
		port       int
		delayMs    int
		logLevel   string
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock server",
		Long: `Start the HTTP mock server from a YAML config file. The config names an
OpenAPI spec or declares resources inline; each resource gets full CRUD
routes plus the /hub listener registration endpoint and the /__debug
surface.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// Flags override the file.
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("delay-ms") {
				cfg.Server.DelayMs = delayMs
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.Logging.Format = logFormat
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tmfmockd.yaml", "Path to config file")
	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides config)")
	cmd.Flags().IntVar(&delayMs, "delay-ms", 0, "Artificial response delay in milliseconds")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", "", "Log format (text, json)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: logging.ParseFormat(cfg.Logging.Format),
	})

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

	srv := server.New(eng,
		server.WithAddr(cfg.Server.Addr()),
		server.WithDelay(cfg.Server.Delay()),
		server.WithLogger(log),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("serving resources", "resources", registry.Names())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
