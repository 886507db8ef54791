package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the companion configuration.
type Config struct {
	// Catalog API configuration
	Catalog CatalogConfig `toml:"catalog"`

	// Remote shopping-list store configuration
	Store StoreConfig `toml:"store"`

	// Identity provider configuration
	Auth AuthConfig `toml:"auth"`

	// Local companion API server configuration
	Server ServerConfig `toml:"server"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// CatalogConfig contains catalog API settings.
type CatalogConfig struct {
	BaseURL  string `toml:"base_url"`  // Catalog API root
	APIKey   string `toml:"api_key"`   // Static X-Api-Key value
	PageSize int    `toml:"page_size"` // Search page size
}

// StoreConfig contains remote document-store settings. An empty base URL
// selects the in-process store.
type StoreConfig struct {
	BaseURL      string `toml:"base_url"`      // Document store root ("" = in-memory)
	APIKey       string `toml:"api_key"`       // Bearer token
	PollInterval string `toml:"poll_interval"` // Watch polling interval (e.g. "2s")
}

// AuthConfig contains identity-provider settings.
type AuthConfig struct {
	BaseURL string `toml:"base_url"` // Identity API root
	APIKey  string `toml:"api_key"`  // Provider API key
}

// ServerConfig contains companion API server settings.
type ServerConfig struct {
	Port           int      `toml:"port"`            // Listen port
	AllowedOrigins []string `toml:"allowed_origins"` // CORS origins for the UI
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:  "https://api.pokemontcg.io/v2",
			APIKey:   "",
			PageSize: 50,
		},
		Store: StoreConfig{
			BaseURL:      "",
			PollInterval: "2s",
		},
		Auth: AuthConfig{
			BaseURL: "",
		},
		Server: ServerConfig{
			Port:           9980,
			AllowedOrigins: []string{"http://localhost:*"},
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".pokevault")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from disk. Returns default config if file
// doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &config, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog base URL is required")
	}

	if c.Catalog.PageSize < 1 || c.Catalog.PageSize > 250 {
		return fmt.Errorf("catalog page size must be between 1 and 250: %d", c.Catalog.PageSize)
	}

	if _, err := time.ParseDuration(c.Store.PollInterval); err != nil {
		return fmt.Errorf("invalid store poll interval %q: %w", c.Store.PollInterval, err)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

// GetStorePollInterval returns the store poll interval as a duration.
func (c *Config) GetStorePollInterval() (time.Duration, error) {
	return time.ParseDuration(c.Store.PollInterval)
}
