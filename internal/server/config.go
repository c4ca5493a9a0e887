package server

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration, sourced from the environment and then
// overridden by command-line flags.
type Config struct {
	Addr        string `env:"DATEOPS_ADDR" envDefault:":8080"`
	CatalogPath string `env:"DATEOPS_CATALOG"`
	SavePath    string `env:"DATEOPS_SAVE" envDefault:"dateops.db"`

	// TestTime simulates the session clock ("HH:MM", zero-padded) for dry
	// runs; NoRestrictions additionally disarms all time gating.
	TestTime       string `env:"DATEOPS_TEST_TIME"`
	NoRestrictions bool   `env:"DATEOPS_NO_RESTRICTIONS"`

	// TestPassword guards the in-session time-override command.
	TestPassword string `env:"DATEOPS_TEST_PASSWORD" envDefault:"echo"`

	// UnlockDate ("YYYY-MM-DD") seals the operation until the big day.
	UnlockDate string `env:"DATEOPS_UNLOCK_DATE"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}
	return cfg, nil
}
