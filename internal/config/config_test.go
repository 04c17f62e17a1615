package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DEBUG", "STORAGE", "DATABASE_URL", "TIMEZONE", "BATTERY_SOURCE", "BATTERY_SYSFS_PATH",
		"BATTERY_POLL_INTERVAL", "AUTOTUNE_INTERVAL", "AUTOTUNE_INITIAL_DELAY", "AUTOTUNE_HISTORY_DAYS",
		"HISTORY_DAYS_DEFAULT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.ServerPort)
	assert.False(t, cfg.Debug)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, BatterySourceSysfs, cfg.BatterySource)
	assert.Equal(t, "/sys/class/power_supply/BAT0", cfg.BatterySysfsPath)
	assert.Equal(t, time.Minute, cfg.BatteryPollInterval)
	assert.Equal(t, 24*time.Hour, cfg.AutoTuneInterval)
	assert.Equal(t, 6*time.Hour, cfg.AutoTuneInitialDelay)
	assert.Equal(t, 30, cfg.AutoTuneHistoryDays)
	assert.Equal(t, 30, cfg.HistoryDaysDefault)
	assert.Equal(t, time.Local, cfg.Location)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DEBUG", "true")
	t.Setenv("STORAGE", "memory")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("BATTERY_SOURCE", "none")
	t.Setenv("BATTERY_POLL_INTERVAL", "15s")
	t.Setenv("AUTOTUNE_HISTORY_DAYS", "14")
	t.Setenv("HISTORY_DAYS_DEFAULT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.True(t, cfg.Debug)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.Equal(t, BatterySourceNone, cfg.BatterySource)
	assert.Equal(t, 15*time.Second, cfg.BatteryPollInterval)
	assert.Equal(t, 14, cfg.AutoTuneHistoryDays)
	assert.Equal(t, 30, cfg.HistoryDaysDefault)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"STORAGE", "mysql"},
		{"BATTERY_SOURCE", "acpi"},
		{"TIMEZONE", "Mars/Olympus"},
		{"BATTERY_POLL_INTERVAL", "-1s"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
