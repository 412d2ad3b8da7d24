package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// View names a top-level screen
type View string

const (
	ViewCatalog   View = "catalog"
	ViewFavorites View = "favorites"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Cache   CacheConfig   `mapstructure:"cache"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds remote server configuration
type ServerConfig struct {
	URL      string        `mapstructure:"url"`      // Base URL of the profile/catalog API
	Timeout  time.Duration `mapstructure:"timeout"`  // HTTP client timeout
	Username string        `mapstructure:"username"` // Last signed-in user (display only)
}

// SyncConfig controls the favorites coordinator
type SyncConfig struct {
	CallTimeout        time.Duration `mapstructure:"call_timeout"`         // Bound for each remote call
	TrustPatchResponse bool          `mapstructure:"trust_patch_response"` // Skip the canonical re-fetch when the patch echo is complete
}

// CacheConfig holds local persistence configuration
type CacheConfig struct {
	Dir string `mapstructure:"dir"` // Empty = memory only
}

// UIConfig holds UI configuration
type UIConfig struct {
	DefaultView  View `mapstructure:"default_view"`
	ConfirmClear bool `mapstructure:"confirm_clear"`
	FuzzySearch  bool `mapstructure:"fuzzy_search"` // Also show fuzzy hits after substring matches
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     "",
			Timeout: 15 * time.Second,
		},
		Sync: SyncConfig{
			CallTimeout:        10 * time.Second,
			TrustPatchResponse: false,
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		UI: UIConfig{
			DefaultView:  ViewCatalog,
			ConfirmClear: true,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "birdmeal", "birdmeal.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "birdmeal", "birdmeal.log")
	}
}

// DefaultConfigPath returns the default config directory for the current OS
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "birdmeal")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "birdmeal")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "birdmeal", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "birdmeal", "cache")
	}
}

// Loader reads and writes the config file rooted at Dir
type Loader struct {
	Dir string
	v   *viper.Viper
}

// NewLoader creates a Loader for dir. An empty dir uses DefaultConfigPath.
func NewLoader(dir string) *Loader {
	if dir == "" {
		dir = DefaultConfigPath()
	}
	return &Loader{Dir: dir, v: viper.New()}
}

// LoadConfig loads configuration from the default location and environment
func LoadConfig() (*Config, error) {
	return NewLoader("").Load()
}

// SaveConfig saves cfg to the default location
func SaveConfig(cfg *Config) error {
	return NewLoader("").Save(cfg)
}

// Load reads the config file if present and applies BIRDMEAL_ environment overrides
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	l.v.SetConfigName("config")
	l.v.SetConfigType("yaml")
	l.v.AddConfigPath(l.Dir)

	// Environment variable overrides (BIRDMEAL_SERVER_URL, ...)
	l.v.SetEnvPrefix("BIRDMEAL")
	l.v.SetEnvKeyReplacer(envKeyReplacer)
	l.v.AutomaticEnv()
	bindEnvKeys(l.v)

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.UI.DefaultView != ViewFavorites {
		cfg.UI.DefaultView = ViewCatalog
	}

	return cfg, nil
}

// Save writes cfg to config.yaml in the loader directory
func (l *Loader) Save(cfg *Config) error {
	if err := os.MkdirAll(l.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	l.v.Set("server.url", cfg.Server.URL)
	l.v.Set("server.timeout", cfg.Server.Timeout.String())
	l.v.Set("server.username", cfg.Server.Username)

	l.v.Set("sync.call_timeout", cfg.Sync.CallTimeout.String())
	l.v.Set("sync.trust_patch_response", cfg.Sync.TrustPatchResponse)

	l.v.Set("cache.dir", cfg.Cache.Dir)

	l.v.Set("ui.default_view", string(cfg.UI.DefaultView))
	l.v.Set("ui.confirm_clear", cfg.UI.ConfirmClear)
	l.v.Set("ui.fuzzy_search", cfg.UI.FuzzySearch)

	l.v.Set("logging.file", cfg.Logging.File)
	l.v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(l.Dir, "config.yaml")
	if err := l.v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ClearServerConfig removes the server URL and signed-in user
// while preserving other settings (sync, UI, logging)
func (l *Loader) ClearServerConfig() error {
	cfg, err := l.Load()
	if err != nil {
		return err
	}
	cfg.Server.URL = ""
	cfg.Server.Username = ""
	return l.Save(cfg)
}

// IsConfigured returns true if the server URL is set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != ""
}
