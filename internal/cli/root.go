// Package cli wires the diabetapp-api commands.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/wichananm65/diabetapp-backend/internal/config"
	"github.com/wichananm65/diabetapp-backend/internal/logging"
)

// NewRootCommand builds the CLI. Running it without a subcommand serves the API.
func NewRootCommand() *cobra.Command {
	serve := NewServeCommand()

	cmd := &cobra.Command{
		Use:           "diabetapp-api",
		Short:         "DiabetApp backend API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	cmd.AddCommand(serve)
	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewGenSecretCommand())
	return cmd
}

// loadConfig reads configuration and builds the logger it describes.
func loadConfig(w io.Writer) (config.Config, *logging.SlogLogger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(w, cfg.LogFormat, cfg.LogLevel), nil
}

func requireDatabase(cfg config.Config) error {
	if cfg.DatabaseURL == "" {
		return config.ErrDatabaseMissing
	}
	return nil
}

func logStartup(ctx context.Context, log logging.Logger, cfg config.Config) {
	args := []any{"env", cfg.AppEnv, "addr", cfg.Addr(), "db_driver", cfg.DBDriver}
	if cfg.IsDevelopment() {
		args = append(args, "jwt_secret", cfg.MaskedSecret())
	}
	log.Info(ctx, "configuration loaded", args...)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
