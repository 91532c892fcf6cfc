// Package config holds the process configuration.
package config

import (
	env "github.com/caarlos0/env/v11"
)

// Config is parsed from the environment. DatabaseURL and RedisURL are
// optional; without them the matching persistence collaborator is simply
// not wired.
type Config struct {
	Port  string `env:"PORT" envDefault:"8080"`
	Debug bool   `env:"DEBUG" envDefault:"false"`

	FrontendPath string   `env:"FRONTEND_PATH"`
	APIKeys      []string `env:"API_KEYS" envSeparator:","`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	ReconnectGraceSec int `env:"RECONNECT_GRACE_SEC" envDefault:"30"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
