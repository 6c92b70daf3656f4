// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	minSecretLength = 32
)

var (
	ErrSecretMissing   = errors.New("JWT_SECRET is not set")
	ErrSecretTooShort  = fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	ErrDatabaseMissing = errors.New("DATABASE_URL is not set")
)

type Config struct {
	Port   int    `env:"PORT"    envDefault:"3000"`
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	JWTSecret string `env:"JWT_SECRET"`

	DatabaseURL    string `env:"DATABASE_URL"`
	DBDriver       string `env:"DB_DRIVER"         envDefault:"pgx"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`

	CORSAllowOrigins string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT"   envDefault:"10s"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads an optional .env file, then the process environment.
// The result is not validated; call Validate before serving.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem that must stop the server from starting.
func (c Config) Validate() error {
	var errs []error
	switch {
	case c.JWTSecret == "":
		errs = append(errs, ErrSecretMissing)
	case len(c.JWTSecret) < minSecretLength:
		errs = append(errs, ErrSecretTooShort)
	}
	if c.DatabaseURL == "" {
		errs = append(errs, ErrDatabaseMissing)
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	switch c.AppEnv {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV %q is not one of development, production, test", c.AppEnv))
	}
	return errors.Join(errs...)
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func (c Config) IsProduction() bool { return c.AppEnv == EnvProduction }

func (c Config) IsDevelopment() bool { return c.AppEnv == EnvDevelopment }

// MaskedSecret shows only the first few characters of the signing secret.
func (c Config) MaskedSecret() string {
	const visible = 4
	if len(c.JWTSecret) <= visible {
		return "****"
	}
	return c.JWTSecret[:visible] + "****"
}
