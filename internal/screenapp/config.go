package screenapp

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

// ErrMissingAPIKey indicates the bearer credential was not configured.
// The process must refuse to serve rather than fail every call at runtime.
var ErrMissingAPIKey = errors.New("SCREENAPP_API_KEY is required")

// Config holds ScreenApp API and server configuration. It is built once
// at startup and handed to the client and transport; no component reads
// the environment after that.
type Config struct {
	BaseURL string `env:"SCREENAPP_API_BASE_URL" envDefault:"https://api.screenapp.io/v2"`
	APIKey  string `env:"SCREENAPP_API_KEY"`
	Port    string `env:"PORT" envDefault:"8000"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that required fields are present.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
