package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxtrader/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "paper", cfg.Execution.Mode)
	assert.Equal(t, time.Minute, cfg.Bars.Interval)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
stream:
  pairs: ["EUR/USD", "GBP/JPY"]
bars:
  interval: 5m
risk:
  risk_per_trade: 0.02
strategy:
  enabled: ["ma_cross"]
  weights:
    ma_cross: 2.0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []model.Pair{model.EURUSD, model.GBPJPY}, cfg.Stream.Pairs)
	assert.Equal(t, 5*time.Minute, cfg.Bars.Interval)
	assert.Equal(t, 0.02, cfg.Risk.RiskPerTrade)
	assert.Equal(t, 2.0, cfg.Strategy.Weights["ma_cross"])
	// Untouched sections keep their defaults.
	assert.Equal(t, "atr", cfg.Risk.StopMode)
}

func TestSecretsComeFromEnv(t *testing.T) {
	t.Setenv("FX_API_KEY", "key-from-env")
	t.Setenv("FX_API_SECRET", "secret-from-env")

	path := writeConfig(t, `
execution:
  api_key: key-from-file
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "key-from-env", cfg.Execution.APIKey, "env wins over file")
	assert.Equal(t, "secret-from-env", cfg.Execution.APISecret)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"risk too high", func(c *Config) { c.Risk.RiskPerTrade = 0.5 }},
		{"zero interval", func(c *Config) { c.Bars.Interval = 0 }},
		{"bad stop mode", func(c *Config) { c.Risk.StopMode = "psychic" }},
		{"bad mode", func(c *Config) { c.Execution.Mode = "dry-run" }},
		{"live without broker", func(c *Config) { c.Execution.Mode = "live" }},
		{"no pairs", func(c *Config) { c.Stream.Pairs = nil }},
		{"drawdown full", func(c *Config) { c.Risk.MaxDrawdown = 1.0 }},
		{"partial close whole position", func(c *Config) { c.Risk.PartialCloseFrac = 1.0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}
