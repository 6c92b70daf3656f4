package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wichananm65/diabetapp-backend/internal/database"
	"github.com/wichananm65/diabetapp-backend/internal/glucose"
	"github.com/wichananm65/diabetapp-backend/internal/password"
	"github.com/wichananm65/diabetapp-backend/internal/server"
	"github.com/wichananm65/diabetapp-backend/internal/token"
	"github.com/wichananm65/diabetapp-backend/internal/user"
)

func NewServeCommand() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations at startup")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, skipMigrations bool) error {
	cfg, log, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	// refuse to start without a usable secret and database
	if err := cfg.Validate(); err != nil {
		return wrap("invalid configuration", err)
	}
	logStartup(ctx, log, cfg)

	tokens, err := token.NewManager([]byte(cfg.JWTSecret))
	if err != nil {
		return wrap("token manager", err)
	}
	log.Info(ctx, "token manager ready", "ttl", tokens.TTL())
	hasher, err := password.New(password.DefaultCost)
	if err != nil {
		return wrap("password hasher", err)
	}

	db, err := database.Open(ctx, database.Options{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DatabaseURL,
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if !skipMigrations {
		if err := database.Migrate(ctx, db, log); err != nil {
			return err
		}
	}

	app := server.New(server.Deps{
		Logger:      log,
		Users:       user.NewPostgresRepository(db),
		Readings:    glucose.NewPostgresRepository(db),
		Hasher:      hasher,
		Tokens:      tokens,
		CORSOrigins: cfg.CORSAllowOrigins,
	})
	return server.Run(ctx, app, cfg.Addr(), cfg.ShutdownTimeout, log)
}
