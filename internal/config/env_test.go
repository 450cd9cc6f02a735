package config

import (
	"os"
	"testing"
	"time"

	"github.com/kanoloa/cbclient/pkg/client"
	"github.com/kanoloa/cbclient/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnv sets every cbclient variable, unsetting the ones not in vars.
func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for _, key := range []string{
		"USERNAME", "PASSWORD", "SERVER_URL", "PROXY",
		"LOG_LEVEL", "LOG_PRETTY", "HTTP_TIMEOUT", "TRACING",
	} {
		value, ok := vars[key]
		t.Setenv(key, value)
		if !ok {
			require.NoError(t, os.Unsetenv(key))
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, map[string]string{"SERVER_URL": "https://cb.example.com/cb/api/v3"})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://cb.example.com/cb/api/v3", cfg.ServerURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.Tracing)
}

func TestLoad_AllVariables(t *testing.T) {
	setEnv(t, map[string]string{
		"USERNAME":     "tom",
		"PASSWORD":     "cat",
		"SERVER_URL":   "http://localhost:8080/cb/api/v3",
		"PROXY":        "http://proxy.internal:3128",
		"LOG_LEVEL":    "debug",
		"LOG_PRETTY":   "true",
		"HTTP_TIMEOUT": "5s",
		"TRACING":      "true",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tom", cfg.Username)
	assert.Equal(t, "cat", cfg.Password)
	assert.Equal(t, "http://proxy.internal:3128", cfg.Proxy)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.Tracing)

	logger := zerolog.Nop()
	clientCfg := cfg.ClientConfig(&logger)
	assert.Equal(t, client.BasicAuth{Username: "tom", Password: "cat"}, clientCfg.Connection.Credentials)
	assert.Equal(t, "http://localhost:8080/cb/api/v3", clientCfg.Connection.BaseURL)
	assert.Equal(t, "http://proxy.internal:3128", clientCfg.ProxyURL)
	assert.Equal(t, 5*time.Second, clientCfg.Timeout)
	assert.True(t, clientCfg.Tracing)
	assert.Same(t, &logger, clientCfg.Logger)

	logCfg := cfg.LoggingConfig()
	assert.Equal(t, logging.LevelDebug, logCfg.Level)
	assert.True(t, logCfg.Pretty)
}

func TestLoad_MissingServerURL(t *testing.T) {
	setEnv(t, map[string]string{"USERNAME": "tom", "PASSWORD": "cat"})

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
	assert.Contains(t, err.Error(), "SERVER_URL")
}

func TestLoad_InvalidTimeout(t *testing.T) {
	setEnv(t, map[string]string{
		"SERVER_URL":   "http://localhost:8080",
		"HTTP_TIMEOUT": "soon",
	})

	_, err := Load()
	assert.Error(t, err)
}

func TestConnection_MissingCredentials(t *testing.T) {
	cfg := Env{ServerURL: "http://localhost:8080", Username: "tom"}

	conn := cfg.Connection()
	assert.False(t, conn.Authenticated())
	assert.Equal(t, client.Anonymous{}, conn.Credentials)
}
