package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port     int           `env:"TEST_CFG_PORT" envDefault:"8080" validate:"min=1,max=65535"`
	Host     string        `env:"TEST_CFG_HOST" envDefault:"localhost"`
	Window   time.Duration `env:"TEST_CFG_WINDOW" envDefault:"15m" validate:"gt=0"`
	Brokers  []string      `env:"TEST_CFG_BROKERS" envDefault:"a:9092,b:9092" envSeparator:","`
	Debug    bool          `env:"TEST_CFG_DEBUG" envDefault:"false"`
	LogLevel string        `env:"TEST_CFG_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 15*time.Minute, cfg.Window)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers)
	assert.False(t, cfg.Debug)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_WINDOW", "1h")
	t.Setenv("TEST_CFG_DEBUG", "true")
	t.Setenv("TEST_CFG_LOG_LEVEL", "debug")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, time.Hour, cfg.Window)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidType(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "not-a-number")

	var cfg testConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "70000")

	var cfg testConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
	assert.Contains(t, err.Error(), "Port")
}

func TestLoad_ValidationFailure_ZeroDuration(t *testing.T) {
	t.Setenv("TEST_CFG_WINDOW", "0s")

	var cfg testConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Window")
}

type requiredConfig struct {
	APIKey string `env:"TEST_CFG_API_KEY,required"`
}

func TestLoad_RequiredFieldMissing(t *testing.T) {
	var cfg requiredConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_RequiredFieldPresent(t *testing.T) {
	t.Setenv("TEST_CFG_API_KEY", "secret-123")

	var cfg requiredConfig
	require.NoError(t, Load(&cfg))
	assert.Equal(t, "secret-123", cfg.APIKey)
}
