package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodYAML = `
env: test
symbol: sh600941
market:
  lotSize: 100
  bands: [150000, 500000, 2000000]
poll:
  intervalMs: 5000
largeTrade:
  threshold: 500000
alert:
  enabled: true
  threshold: 2000000
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, goodYAML))
	require.NoError(t, err)

	assert.Equal(t, "sh600941", cfg.Symbol)
	assert.Equal(t, int64(100), cfg.Market.LotSize)
	assert.Equal(t, 5000, cfg.Poll.IntervalMs)
	// 未配置的字段取缺省
	assert.Equal(t, 8000, cfg.Poll.FetchTimeoutMs)
	assert.Equal(t, 300, cfg.Poll.MaxLiveRows)
	assert.Equal(t, 60, cfg.Alert.ThrottleSeconds)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "env: [unterminated"))
	assert.Error(t, err)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"missing symbol", func(c *AppConfig) { c.Symbol = "" }},
		{"bad lot size", func(c *AppConfig) { c.Market.LotSize = 0 }},
		{"unsorted bands", func(c *AppConfig) { c.Market.Bands = []float64{500000, 150000} }},
		{"negative threshold", func(c *AppConfig) { c.LargeTrade.Threshold = -1 }},
		{"alert below merge threshold", func(c *AppConfig) {
			c.Alert.Enabled = true
			c.Alert.Threshold = 100
			c.LargeTrade.Threshold = 500000
		}},
		{"zero interval", func(c *AppConfig) { c.Poll.IntervalMs = 0 }},
	}
	base, err := Load(writeConfig(t, goodYAML))
	require.NoError(t, err)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("TICKMON_SYMBOL", "sz000001")
	t.Setenv("TICKMON_THRESHOLD", "1000000")

	cfg, err := LoadWithEnvOverrides(writeConfig(t, goodYAML))
	require.NoError(t, err)
	assert.Equal(t, "sz000001", cfg.Symbol)
	assert.Equal(t, float64(1000000), cfg.LargeTrade.Threshold)
}

func TestLoadWithBadEnvOverride(t *testing.T) {
	t.Setenv("TICKMON_THRESHOLD", "not-a-number")
	_, err := LoadWithEnvOverrides(writeConfig(t, goodYAML))
	assert.Error(t, err)
}
