package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for ews-console.
// Configuration can come from a YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values. Credentials are never
// stored in config; the session token lives only in memory for the process.
type Config struct {
	// EWS backend base URL, e.g. https://ews.internal.bank/api
	APIBaseURL string `yaml:"api_base_url" env:"EWS_API_BASE_URL" env-default:"http://localhost:5000"`

	// Env selects logger behavior: "local" uses a development logger.
	Env string `yaml:"env" env:"EWS_ENVIRONMENT" env-default:"local"`

	// RequestTimeoutSeconds bounds each individual HTTP call to the backend.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" env:"EWS_REQUEST_TIMEOUT_SECONDS" env-default:"30"`

	// DraftStorePath is the SQLite file holding locally saved drafts.
	// Defaults under the user config dir when empty.
	DraftStorePath string `yaml:"draft_store_path" env:"EWS_DRAFT_STORE_PATH" env-default:""`

	// PageSize is the default rows-per-page for table listings.
	PageSize int `yaml:"page_size" env:"EWS_PAGE_SIZE" env-default:"10"`

	Version string `yaml:"-"` // Set at load time, not from config
}

// Load reads configuration from the given YAML file with environment variable
// overrides. A missing file is not an error; configuration then comes from
// environment variables and defaults alone.
func Load(path, version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) normalize() error {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url must not be empty")
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds must be positive")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive")
	}

	if c.DraftStorePath == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			// Fall back to the working directory on exotic platforms.
			base = "."
		}
		c.DraftStorePath = filepath.Join(base, "ews-console", "drafts.db")
	}

	return nil
}

// IsLocal reports whether the console runs in the local development environment.
func (c *Config) IsLocal() bool {
	return c.Env == "local"
}
