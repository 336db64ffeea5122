package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds the environment overrides. They rank above the config file and
// below command line flags.
type Env struct {
	Theme string `env:"BATTLEMAP_THEME"`
	DB    string `env:"BATTLEMAP_DB"`
	Dev   bool   `env:"BATTLEMAP_DEV"`
}

// ParseEnv reads Env from the process environment.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// Apply returns a copy of c with the non-empty overrides of e applied.
func (e Env) Apply(c *Config) *Config {
	out := *c
	if e.Theme != "" {
		out.Theme = e.Theme
	}
	if e.DB != "" {
		out.DB = e.DB
	}
	if e.Dev {
		out.Dev = true
	}
	return &out
}
