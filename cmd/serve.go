package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"photoscribe/pkg/channel/telegram"
	"photoscribe/pkg/config"
	"photoscribe/pkg/gateway"
	"photoscribe/pkg/logger"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Long:  "Long-polls Telegram and replies to each photo with a generated description until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			log.Error("Configuration invalid", "error", err)
			return err
		}

		runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runServe(runCtx, cfg, log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// loadRuntime loads configuration and installs the process logger.
func loadRuntime() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfigFrom(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	appLogger, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	slog.SetDefault(appLogger)

	return cfg, appLogger, nil
}

func runServe(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	log = log.With("component", "cmd.serve")

	adapter, err := telegram.NewAdapter(cfg.Telegram, log)
	if err != nil {
		return fmt.Errorf("configure telegram channel: %w", err)
	}

	svc, err := gateway.NewService(cfg, adapter, log)
	if err != nil {
		return fmt.Errorf("initialize gateway service: %w", err)
	}

	log.Info("Gateway started",
		"channel", adapter.Name(),
		"model", cfg.Inference.Model,
		"staging_dir", cfg.Staging.Dir,
		"allow_from", len(cfg.Telegram.AllowFrom),
	)
	if err := svc.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		log.Error("Gateway runtime failed", "error", err)
		return err
	}

	return nil
}
