package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProfile_BuiltinDefaults(t *testing.T) {
	p, err := loadProfile(filepath.Join(t.TempDir(), "missing.yaml"), "standard")
	require.NoError(t, err, "missing file falls back to built-ins")
	assert.Equal(t, "standard", p.Name)
	assert.Equal(t, 70, p.BuyThreshold)

	_, err = loadProfile(filepath.Join(t.TempDir(), "missing.yaml"), "no-such-profile")
	assert.Error(t, err)
}

func TestLoadProfile_FileOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	content := `
profiles:
  standard:
    primary_interval: "5m"
    medium_interval: "1h"
    resample_factor: 12
    buy_threshold: 65
    weights: {intraday: 25, oversold: 20, band: 40, volume: 20, momentum: 15}
    rsi_period: 14
    stoch_k_period: 3
    stoch_d_period: 3
    bb_window: 20
    bb_k: 2.0
    volume_window: 20
    oversold_rsi: 30
    overbought_rsi: 70
    oversold_stoch: 20
    overbought_stoch: 80
    short_bb_ceiling: 0.35
    medium_bb_ceiling: 0.45
    volume_surge_ratio: 1.5
    min_quote_turnover: 50000
    divergence_lookback: 20
    decel_threshold: 0.05
    accel_stop_threshold: -0.1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := loadProfile(path, "standard")
	require.NoError(t, err)
	assert.Equal(t, 65, p.BuyThreshold, "file value wins over built-in")
	assert.Equal(t, "standard", p.Name, "name defaults to the map key")
	assert.Equal(t, "1h", p.MediumInterval)
}

func TestLoadProfile_PartialOverrideKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	content := `
profiles:
  aggressive:
    buy_threshold: 55
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := loadProfile(path, "aggressive")
	require.NoError(t, err)
	assert.Equal(t, 55, p.BuyThreshold)
	assert.Equal(t, "5m", p.PrimaryInterval, "untouched fields keep built-in values")
	assert.Equal(t, 14, p.RSIPeriod)
}

func TestLoadProfile_RejectsInvalidProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  broken:\n    buy_threshold: 200\n"), 0o644))

	_, err := loadProfile(path, "broken")
	assert.Error(t, err)
}

func TestLoadProfile_RejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles: [not a map"), 0o644))

	_, err := loadProfile(path, "standard")
	assert.Error(t, err)
}
