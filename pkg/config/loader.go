package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"

	"github.com/Joseph-VJ/houlnd-realty/pkg/validator"
)

// Load parses environment variables into cfg using `env` / `envDefault`
// tags, then runs `validate` struct tags over the result.
//
// Example:
//
//	type Config struct {
//	    Port     int    `env:"HTTP_PORT" envDefault:"8080" validate:"min=1,max=65535"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if err := validator.Validate(cfg); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}
