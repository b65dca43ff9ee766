package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"APP_PORT", "SHUTDOWN_TIMEOUT", "LOG_LEVEL", "STORAGE_BACKEND", "SQLITE_DB_PATH",
	"MONGODB_URI", "MONGODB_DB_NAME", "TIMEZONE", "AUTOSAVE_DEBOUNCE",
	"TAXONOMY_FILE", "REHYDRATE_ON_START", "EXPORT_DIR", "REPORT_CRON_SCHEDULE",
	"WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "WHATSAPP_BASE_URL",
	"WHATSAPP_API_VERSION", "WHATSAPP_REPORT_RECIPIENT",
	"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID", "GOOGLE_SHEET_RANGE",
	"GOOGLE_SHEET_HISTORY_RANGE",
}

// clearEnv unsets every key Load reads. t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func emptyEnvFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(emptyEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "./data/flock.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 1500*time.Millisecond, cfg.Tracker.AutosaveDebounce)
	assert.False(t, cfg.Tracker.RehydrateOnStart)
	assert.Equal(t, "0 20 * * *", cfg.Reporting.CronSchedule)
	assert.False(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.Sheets.Enabled())
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"STORAGE_BACKEND=memory\nTIMEZONE=UTC\nAUTOSAVE_DEBOUNCE=250ms\nREHYDRATE_ON_START=true\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Tracker.AutosaveDebounce)
	assert.True(t, cfg.Tracker.RehydrateOnStart)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":   {"STORAGE_BACKEND": "postgres"},
		"mongo without uri": {"STORAGE_BACKEND": "mongodb"},
		"bad timezone":      {"TIMEZONE": "Mars/Olympus"},
		"bad duration":      {"AUTOSAVE_DEBOUNCE": "soon"},
		"zero debounce":     {"AUTOSAVE_DEBOUNCE": "0s"},
		"bad bool":          {"REHYDRATE_ON_START": "maybe"},
		"bad cron":          {"REPORT_CRON_SCHEDULE": "every night"},
		"partial whatsapp":  {"WHATSAPP_TOKEN": "token"},
		"partial sheets":    {"GOOGLE_SHEET_DATABASE_ID": "sheet"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load(emptyEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestIntegrationsEnabledAsGroup(t *testing.T) {
	clearEnv(t)
	t.Setenv("WHATSAPP_TOKEN", "token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "123")
	t.Setenv("WHATSAPP_REPORT_RECIPIENT", "224600000000")
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_PATH", "/secrets/sa.json")
	t.Setenv("GOOGLE_SHEET_DATABASE_ID", "sheet")

	cfg, err := Load(emptyEnvFile(t))
	require.NoError(t, err)
	assert.True(t, cfg.WhatsApp.Enabled())
	assert.True(t, cfg.Sheets.Enabled())
	assert.Equal(t, "Snapshot!A1:J", cfg.Sheets.Range)
	assert.Equal(t, "History!A:J", cfg.Sheets.HistoryRange)
}

func TestSheetRangesMustDiffer(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_PATH", "/secrets/sa.json")
	t.Setenv("GOOGLE_SHEET_DATABASE_ID", "sheet")
	t.Setenv("GOOGLE_SHEET_HISTORY_RANGE", "Snapshot!A1:J")

	_, err := Load(emptyEnvFile(t))
	assert.ErrorContains(t, err, "GOOGLE_SHEET_HISTORY_RANGE")
}

func TestValidateNil(t *testing.T) {
	var cfg *Config
	assert.Error(t, cfg.Validate())
}
