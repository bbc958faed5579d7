package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all client and dev-server settings.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Tasks   TasksConfig   `mapstructure:"tasks"`
	Dev     DevConfig     `mapstructure:"dev"`
}

// ServerConfig points the client at the backend.
type ServerConfig struct {
	// BaseURL is the HTTP API root, e.g. http://localhost:8888.
	BaseURL string `mapstructure:"base_url"`
	// PushURL is the websocket push endpoint. Derived from BaseURL
	// when empty.
	PushURL string `mapstructure:"push_url"`
}

// StorageConfig locates durable client-side state.
type StorageConfig struct {
	// CredentialsPath is the sqlite file holding the {token, user}
	// pair across restarts.
	CredentialsPath string `mapstructure:"credentials_path"`
}

// TasksConfig tunes the task table.
type TasksConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// DevConfig configures the bundled development server.
type DevConfig struct {
	Addr         string `mapstructure:"addr"`
	DatabasePath string `mapstructure:"database_path"`
}

// Load builds the configuration from defaults, an optional config
// file (taskboard.yaml in the working directory or ~/.config/
// taskboard) and TASKBOARD_* environment variables, in ascending
// precedence.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.base_url", "http://localhost:8888")
	v.SetDefault("server.push_url", "")
	v.SetDefault("storage.credentials_path", defaultCredentialsPath())
	v.SetDefault("tasks.page_size", 5)
	v.SetDefault("dev.addr", ":8888")
	v.SetDefault("dev.database_path", "./taskboard-dev.db")

	v.SetConfigName("taskboard")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "taskboard"))
	}

	v.SetEnvPrefix("TASKBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; a malformed one is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.Server.PushURL == "" {
		cfg.Server.PushURL = derivePushURL(cfg.Server.BaseURL)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server base URL cannot be empty")
	}
	if c.Server.PushURL == "" {
		return fmt.Errorf("push URL cannot be empty")
	}
	if c.Storage.CredentialsPath == "" {
		return fmt.Errorf("credentials path cannot be empty")
	}
	if c.Tasks.PageSize <= 0 {
		return fmt.Errorf("task page size must be positive")
	}
	if c.Dev.Addr == "" {
		return fmt.Errorf("dev server address cannot be empty")
	}
	if c.Dev.DatabasePath == "" {
		return fmt.Errorf("dev server database path cannot be empty")
	}
	return nil
}

// derivePushURL maps an HTTP base URL onto the websocket endpoint.
func derivePushURL(baseURL string) string {
	ws := baseURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return strings.TrimSuffix(ws, "/") + "/ws"
}

func defaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./taskboard-credentials.db"
	}
	return filepath.Join(home, ".config", "taskboard", "credentials.db")
}
