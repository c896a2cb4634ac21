package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	// DataDir holds the CSV files when no DATABASE_URL is set.
	DataDir     string `env:"DATA_DIR" envDefault:"data"`
	DatabaseURL string `env:"DATABASE_URL"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	SaltBytes      int `env:"SALT_BYTES" envDefault:"8"`
	HistoryDefault int `env:"HISTORY_DEFAULT" envDefault:"5"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
