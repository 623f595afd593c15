package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithNoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "COIN", cfg.SymbolID)
	assert.Equal(t, int32(6), cfg.RoundDigits)
	assert.Equal(t, "calm", cfg.Scenario)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRespectsEnvOverride(t *testing.T) {
	os.Setenv("SIM_SEED", "777")
	os.Setenv("SIM_SCENARIO", "thin")
	defer os.Unsetenv("SIM_SEED")
	defer os.Unsetenv("SIM_SCENARIO")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(777), cfg.Seed)
	assert.Equal(t, "thin", cfg.Scenario)
}

func TestValidateRejectsUnknownScenario(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Scenario = "chaotic"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveTicks(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Ticks = 0
	assert.Error(t, cfg.Validate())
}
