package profileserver

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config controls the development server
type Config struct {
	Addr            string        `env:"BIRDMEAL_SERVER_ADDR"             envDefault:":3000"`
	DBPath          string        `env:"BIRDMEAL_SERVER_DB"               envDefault:"birdmeal.db"`
	SeedPath        string        `env:"BIRDMEAL_SERVER_SEED"`
	LogLevel        string        `env:"BIRDMEAL_SERVER_LOG_LEVEL"        envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"BIRDMEAL_SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoadConfigFromEnv reads the server configuration from the environment
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
