package cli

import (
	"github.com/spf13/cobra"
	"github.com/wichananm65/diabetapp-backend/internal/database"
)

func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|status]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}

			cfg, log, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := requireDatabase(cfg); err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := database.Open(ctx, database.Options{Driver: cfg.DBDriver, DSN: cfg.DatabaseURL})
			if err != nil {
				return err
			}
			defer db.Close()

			if action == "status" {
				return database.MigrationStatus(ctx, db, log)
			}
			return database.Migrate(ctx, db, log)
		},
	}
}
