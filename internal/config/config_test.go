package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COINSCAN_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.CoinGeckoBaseURL)
	assert.Equal(t, "quick", cfg.ScanCronType)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.False(t, cfg.Backup.Enabled)
	assert.Equal(t, 7, cfg.Backup.RetentionCount)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("COINSCAN_DATA_DIR", t.TempDir())
	t.Setenv("COINSCAN_PORT", "9090")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("SCAN_CRON", "0 6 * * *")
	t.Setenv("SCAN_CRON_TYPE", "deep_ai")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "0 6 * * *", cfg.ScanCron)
	assert.Equal(t, "deep_ai", cfg.ScanCronType)
}

func TestValidateRejectsBadPort(t *testing.T) {
	t.Setenv("COINSCAN_DATA_DIR", t.TempDir())
	t.Setenv("COINSCAN_PORT", "70000")

	_, err := Load()
	assert.ErrorContains(t, err, "invalid port")
}

func TestValidateRejectsIncompleteBackup(t *testing.T) {
	t.Setenv("COINSCAN_DATA_DIR", t.TempDir())
	t.Setenv("BACKUP_ENABLED", "true")

	_, err := Load()
	assert.ErrorContains(t, err, "BACKUP_BUCKET")

	t.Setenv("BACKUP_BUCKET", "backups")
	_, err = Load()
	assert.ErrorContains(t, err, "credentials")

	t.Setenv("BACKUP_ACCESS_KEY", "ak")
	t.Setenv("BACKUP_SECRET_KEY", "sk")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Backup.Enabled)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("SOME_INT", "not a number")
	assert.Equal(t, 5, getEnvAsInt("SOME_INT", 5))

	t.Setenv("SOME_BOOL", "definitely")
	assert.True(t, getEnvAsBool("SOME_BOOL", true))

	assert.Equal(t, "fallback", getEnv("UNSET_KEY_FOR_TEST", "fallback"))
}
