package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"sus-party/internal/game"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port                     int    `env:"PORT" envDefault:"8080"`
	DatabaseURL              string `env:"DATABASE_URL"`
	LogLevel                 string `env:"LOG_LEVEL" envDefault:"info"`
	LogDev                   bool   `env:"LOG_DEV" envDefault:"false"`
	SetupDelaySeconds        int    `env:"SETUP_DELAY_SECONDS" envDefault:"10"`
	ReactorMeltdownSeconds   int    `env:"REACTOR_MELTDOWN_SECONDS" envDefault:"45"`
	IdleSessionMinutes       int    `env:"IDLE_SESSION_MINUTES" envDefault:"60"`
	JanitorSchedule          string `env:"JANITOR_SCHEDULE" envDefault:"@every 5m"`
	DBMaxOpenConns           int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns           int    `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeSeconds int    `env:"DB_CONN_MAX_LIFETIME_SECONDS" envDefault:"300"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Default returns the configuration with every key at its default value,
// ignoring the process environment.
func Default() Config {
	var cfg Config
	_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.SetupDelaySeconds < 0 {
		return errors.New("SETUP_DELAY_SECONDS must not be negative")
	}
	if c.ReactorMeltdownSeconds <= 0 {
		return errors.New("REACTOR_MELTDOWN_SECONDS must be positive")
	}
	if c.IdleSessionMinutes <= 0 {
		return errors.New("IDLE_SESSION_MINUTES must be positive")
	}
	if c.JanitorSchedule == "" {
		return errors.New("JANITOR_SCHEDULE is empty")
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// Rules converts the configured timings for the game core.
func (c Config) Rules() game.Rules {
	return game.Rules{
		SetupDelay:      time.Duration(c.SetupDelaySeconds) * time.Second,
		ReactorMeltdown: time.Duration(c.ReactorMeltdownSeconds) * time.Second,
	}
}

func (c Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleSessionMinutes) * time.Minute
}

func (c Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeSeconds) * time.Second
}
