package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production"
	Server      ServerConfig      `toml:"server"`
	Logging     LoggingConfig     `toml:"logging"`
	Storage     StorageConfig     `toml:"storage"`
	Backend     BackendConfig     `toml:"backend"`
	Wizard      WizardConfig      `toml:"wizard"`
	Charts      ChartsConfig      `toml:"charts"`
	PDF         PDFConfig         `toml:"pdf"`
	Famous      FamousConfig      `toml:"famous"`
	Language    LanguageConfig    `toml:"language"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// BackendConfig describes the remote astrology API this service orchestrates.
type BackendConfig struct {
	BaseURL        string `toml:"base_url"`        // e.g., "https://api.siderea.app/v1"
	RequestTimeout string `toml:"request_timeout"` // e.g., "30s"
	RateLimit      int    `toml:"rate_limit"`      // Requests per second per client
}

// WizardConfig controls chart-creation wizard session behavior.
type WizardConfig struct {
	SessionTTL      string `toml:"session_ttl"`      // e.g., "2h" - idle lifetime of a wizard session
	CleanupSchedule string `toml:"cleanup_schedule"` // Cron schedule for expired-session sweep
	DefaultTimezone string `toml:"default_timezone"` // IANA zone used when none selected
}

// ChartsConfig controls chart-generation polling.
type ChartsConfig struct {
	PollInterval string `toml:"poll_interval"` // e.g., "2s"
	PollTimeout  string `toml:"poll_timeout"`  // Safety-net ceiling, e.g., "10m" (empty = none)
}

// PDFConfig controls PDF export polling and downloads.
type PDFConfig struct {
	PollInterval string `toml:"poll_interval"` // e.g., "2s"
	PollTimeout  string `toml:"poll_timeout"`  // Hard ceiling, e.g., "5m"
	DownloadDir  string `toml:"download_dir"`  // Directory for downloaded exports
}

// FamousConfig contains configuration for public famous-person chart seed files
type FamousConfig struct {
	Dir        string   `toml:"dir"`        // Directory containing chart seed files (YAML)
	Extensions []string `toml:"extensions"` // File extensions to scan (default: [".yaml", ".yml"])
}

// LanguageConfig controls the UI language signal.
type LanguageConfig struct {
	Default string `toml:"default"` // Default language code, e.g., "en"
}

// MaintenanceConfig controls background maintenance jobs.
type MaintenanceConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule for the background maintenance sweep
}

// NewDefaultConfig returns the default configuration
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8190,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/siderea",
				ResetOnStartup: false,
			},
		},
		Backend: BackendConfig{
			BaseURL:        "https://api.siderea.app/v1",
			RequestTimeout: "30s",
			RateLimit:      10,
		},
		Wizard: WizardConfig{
			SessionTTL:      "2h",
			CleanupSchedule: "*/10 * * * *",
			DefaultTimezone: "America/Sao_Paulo",
		},
		Charts: ChartsConfig{
			PollInterval: "2s",
			PollTimeout:  "10m",
		},
		PDF: PDFConfig{
			PollInterval: "2s",
			PollTimeout:  "5m",
			DownloadDir:  "./data/exports",
		},
		Famous: FamousConfig{
			Dir:        "./famous",
			Extensions: []string{".yaml", ".yml"},
		},
		Language: LanguageConfig{
			Default: "en",
		},
		Maintenance: MaintenanceConfig{
			Enabled:  true,
			Schedule: "*/5 * * * *",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SIDEREA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("SIDEREA_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SIDEREA_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if baseURL := os.Getenv("SIDEREA_BACKEND_URL"); baseURL != "" {
		config.Backend.BaseURL = baseURL
	}

	if badgerPath := os.Getenv("SIDEREA_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("SIDEREA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("SIDEREA_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if lang := os.Getenv("SIDEREA_DEFAULT_LANGUAGE"); lang != "" {
		config.Language.Default = lang
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ParseDuration parses a duration string from config, falling back to the
// given default when the value is empty or malformed.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// RequestTimeoutDuration returns the backend request timeout as a duration.
func (c *BackendConfig) RequestTimeoutDuration() time.Duration {
	return ParseDuration(c.RequestTimeout, 30*time.Second)
}

// SessionTTLDuration returns the wizard session TTL as a duration.
func (c *WizardConfig) SessionTTLDuration() time.Duration {
	return ParseDuration(c.SessionTTL, 2*time.Hour)
}

// PollIntervalDuration returns the chart poll interval as a duration.
func (c *ChartsConfig) PollIntervalDuration() time.Duration {
	return ParseDuration(c.PollInterval, 2*time.Second)
}

// PollTimeoutDuration returns the chart poll ceiling, or zero when unset.
func (c *ChartsConfig) PollTimeoutDuration() time.Duration {
	return ParseDuration(c.PollTimeout, 0)
}

// PollIntervalDuration returns the PDF poll interval as a duration.
func (c *PDFConfig) PollIntervalDuration() time.Duration {
	return ParseDuration(c.PollInterval, 2*time.Second)
}

// PollTimeoutDuration returns the PDF poll ceiling as a duration.
func (c *PDFConfig) PollTimeoutDuration() time.Duration {
	return ParseDuration(c.PollTimeout, 5*time.Minute)
}
