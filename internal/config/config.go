package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server        ServerConfig   `toml:"server"`
	AI            AIConfig       `toml:"ai"`
	Database      DatabaseConfig `toml:"database"`
	Calendar      CalendarConfig `toml:"calendar"`
	Notifications NotifyConfig   `toml:"notifications"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type AIConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type CalendarConfig struct {
	Enabled bool   `toml:"enabled"`
	Source  string `toml:"source"` // ICS URL or file path
}

type NotifyConfig struct {
	Enabled     bool `toml:"enabled"`
	LeadMinutes int  `toml:"lead_minutes"`
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr: ":5000",
		},
		AI: AIConfig{
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
		},
		Notifications: NotifyConfig{
			Enabled:     true,
			LeadMinutes: 10,
		},
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "planr"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.AI.BaseURL = v
	}
	if v := os.Getenv("PLANR_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PLANR_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// DatabasePath resolves the sqlite file location, defaulting to a file in the
// config directory when unset.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "planr.db"), nil
}
