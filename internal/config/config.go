package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	MongoDB   MongoDBConfig
	Tracker   TrackerConfig
	Reporting ReportingConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
	LogLevel        string
}

// StorageConfig selects the snapshot store.
type StorageConfig struct {
	Backend    string
	SQLitePath string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// TrackerConfig holds the counting and export options.
type TrackerConfig struct {
	Timezone         string
	AutosaveDebounce time.Duration
	TaxonomyFile     string
	RehydrateOnStart bool
	ExportDir        string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	Recipient     string
}

// Enabled reports whether the daily report should be sent.
func (w WhatsAppConfig) Enabled() bool {
	return w.AccessToken != "" && w.PhoneNumberID != "" && w.Recipient != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	Range           string
	// HistoryRange collects one block of rows per stored day.
	HistoryRange string
}

// Enabled reports whether the latest snapshot should be mirrored to a sheet.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	shutdown, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	debounce, err := getDuration("AUTOSAVE_DEBOUNCE", 1500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	rehydrate, err := getBool("REHYDRATE_ON_START", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getenvWithDefault("APP_PORT", "8080"),
			ShutdownTimeout: shutdown,
			LogLevel:        os.Getenv("LOG_LEVEL"),
		},
		Storage: StorageConfig{
			Backend:    strings.ToLower(getenvWithDefault("STORAGE_BACKEND", "sqlite")),
			SQLitePath: getenvWithDefault("SQLITE_DB_PATH", "./data/flock.db"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "flock"),
		},
		Tracker: TrackerConfig{
			Timezone:         getenvWithDefault("TIMEZONE", "Local"),
			AutosaveDebounce: debounce,
			TaxonomyFile:     os.Getenv("TAXONOMY_FILE"),
			RehydrateOnStart: rehydrate,
			ExportDir:        getenvWithDefault("EXPORT_DIR", "./exports"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			Recipient:     os.Getenv("WHATSAPP_REPORT_RECIPIENT"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			Range:           getenvWithDefault("GOOGLE_SHEET_RANGE", "Snapshot!A1:J"),
			HistoryRange:    getenvWithDefault("GOOGLE_SHEET_HISTORY_RANGE", "History!A:J"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return errors.New("SQLITE_DB_PATH must be provided")
		}
	case "mongodb":
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	case "memory":
	default:
		return fmt.Errorf("STORAGE_BACKEND %q is not one of sqlite, mongodb, memory", c.Storage.Backend)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Tracker.AutosaveDebounce <= 0 {
		return errors.New("AUTOSAVE_DEBOUNCE must be positive")
	}

	if c.Tracker.ExportDir == "" {
		return errors.New("EXPORT_DIR must not be empty")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if _, err := cron.ParseStandard(c.Reporting.CronSchedule); err != nil {
		return fmt.Errorf("REPORT_CRON_SCHEDULE is invalid: %w", err)
	}

	w := c.WhatsApp
	if (w.AccessToken != "" || w.PhoneNumberID != "" || w.Recipient != "") && !w.Enabled() {
		return errors.New("WHATSAPP_TOKEN, WHATSAPP_PHONE_NUMBER_ID and WHATSAPP_REPORT_RECIPIENT must be set together")
	}
	if w.Enabled() && (w.BaseURL == "" || w.APIVersion == "") {
		return errors.New("WHATSAPP_BASE_URL and WHATSAPP_API_VERSION must not be empty")
	}

	s := c.Sheets
	if (s.CredentialsPath != "" || s.SpreadsheetID != "") && !s.Enabled() {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}
	if s.Enabled() && s.Range == "" {
		return errors.New("GOOGLE_SHEET_RANGE must not be empty")
	}
	if s.Enabled() && s.HistoryRange == s.Range {
		return errors.New("GOOGLE_SHEET_HISTORY_RANGE must differ from GOOGLE_SHEET_RANGE")
	}

	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Tracker.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q is invalid: %w", c.Tracker.Timezone, err)
	}
	return loc, nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 1500ms: %w", key, err)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false: %w", key, err)
	}
	return b, nil
}
