package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"

	"github.com/pressly/goose/v3"
	"github.com/wichananm65/diabetapp-backend/internal/logging"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// gooseLogger routes goose output through the application logger.
type gooseLogger struct {
	log logging.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.log.Info(context.Background(), fmt.Sprintf(format, v...))
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.log.Error(context.Background(), fmt.Sprintf(format, v...))
	os.Exit(1)
}

func setupGoose(log logging.Logger) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{log: log.With("component", "goose")})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return nil
}

// gooseUp is a seam for tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

var gooseStatus = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.StatusContext(ctx, db, dir)
}

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, db *sql.DB, log logging.Logger) error {
	if err := setupGoose(log); err != nil {
		return err
	}
	if err := gooseUp(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrationStatus logs the applied/pending state of every migration.
func MigrationStatus(ctx context.Context, db *sql.DB, log logging.Logger) error {
	if err := setupGoose(log); err != nil {
		return err
	}
	if err := gooseStatus(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("migrate status: %w", err)
	}
	return nil
}
