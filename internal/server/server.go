// Package server assembles the fiber application and runs it.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/wichananm65/diabetapp-backend/internal/auth"
	"github.com/wichananm65/diabetapp-backend/internal/glucose"
	"github.com/wichananm65/diabetapp-backend/internal/httpx"
	"github.com/wichananm65/diabetapp-backend/internal/logging"
	"github.com/wichananm65/diabetapp-backend/internal/token"
	"github.com/wichananm65/diabetapp-backend/internal/user"
)

const appName = "diabetapp-api"

type Deps struct {
	Logger      logging.Logger
	Users       user.Repository
	Readings    glucose.Repository
	Hasher      auth.PasswordHasher
	Tokens      *token.Manager
	CORSOrigins string
}

// New builds the app with every route mounted.
func New(d Deps) *fiber.App {
	log := d.Logger

	app := fiber.New(fiber.Config{
		AppName:               appName,
		ErrorHandler:          httpx.ErrorHandler(log),
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})

	app.Use(requestid.New())
	app.Use(httpx.RequestLogger(log))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: d.CORSOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "timestamp": time.Now().UTC()})
	})

	api := app.Group("/api")
	api.Get("/", func(c *fiber.Ctx) error {
		return httpx.OK(c, "DiabetApp API", fiber.Map{"name": appName})
	})

	gate := auth.Middleware(d.Tokens, log)

	authService := auth.NewService(d.Users, d.Hasher, d.Tokens, log)
	authHandler := auth.NewHandler(authService)
	authGroup := api.Group("/auth")
	authHandler.RegisterPublicRoutes(authGroup)
	authHandler.RegisterProtectedRoutes(authGroup, gate)

	glucoseHandler := glucose.NewHandler(glucose.NewService(d.Readings, log))
	glucoseHandler.RegisterProtectedRoutes(api.Group("/glucose", gate))

	return app
}

// Run serves app on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, app *fiber.App, addr string, shutdownTimeout time.Duration, log logging.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server listening", "addr", addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down", "timeout", shutdownTimeout)
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
