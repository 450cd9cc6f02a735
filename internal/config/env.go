// Package config loads the command-line tool's configuration from the
// environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/kanoloa/cbclient/pkg/client"
	"github.com/kanoloa/cbclient/pkg/logging"
	"github.com/rs/zerolog"
)

// Env is the environment of the cbclient tool.
type Env struct {
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`

	// ServerURL is the REST API root, e.g. https://cb.example.com/cb/api/v3.
	ServerURL string `env:"SERVER_URL,required,notEmpty"`

	Proxy string `env:"PROXY"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"60s"`
	Tracing     bool          `env:"TRACING" envDefault:"false"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads Env from the process environment.
func Load() (Env, error) {
	var cfg Env
	if err := ParseEnv(&cfg); err != nil {
		return Env{}, err
	}
	return cfg, nil
}

// Connection returns the client connection described by the environment.
// Missing credentials yield an anonymous connection.
func (e Env) Connection() client.Connection {
	return client.NewConnection(e.ServerURL, e.Username, e.Password)
}

// ClientConfig returns the client configuration for the environment.
func (e Env) ClientConfig(logger *zerolog.Logger) client.Config {
	cfg := client.DefaultConfig(e.Connection())
	cfg.ProxyURL = e.Proxy
	cfg.Timeout = e.HTTPTimeout
	cfg.Tracing = e.Tracing
	cfg.Logger = logger
	return cfg
}

// LoggingConfig returns the logging configuration for the environment.
func (e Env) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(e.LogLevel)
	cfg.Pretty = e.LogPretty
	return cfg
}
