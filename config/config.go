package config

import (
	"fmt"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key when read from the environment
const EnvPrefix = "CMS"

// Config holds all application configuration
type Config struct {
	Provider string         `mapstructure:"provider"`
	Debug    bool           `mapstructure:"debug"`
	Embedded EmbeddedConfig `mapstructure:"embedded"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Log      LogConfig      `mapstructure:"log"`
}

// EmbeddedConfig configures the in-process CMS runtime
type EmbeddedConfig struct {
	DSN     string `mapstructure:"dsn"`
	Workers int    `mapstructure:"workers"`
}

// RemoteConfig configures the REST CMS client
type RemoteConfig struct {
	URL         string        `mapstructure:"url"`
	APIToken    string        `mapstructure:"api_token"`
	AdminToken  string        `mapstructure:"admin_token"`
	JobsEnabled bool          `mapstructure:"jobs_enabled"`
	JobsPath    string        `mapstructure:"jobs_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LogConfig configures the structured logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

var defaults = map[string]any{
	"provider":            "",
	"debug":               false,
	"embedded.dsn":        "file:statusdock.db?_foreign_keys=on",
	"embedded.workers":    4,
	"remote.url":          "http://localhost:1337",
	"remote.api_token":    "",
	"remote.admin_token":  "",
	"remote.jobs_enabled": true,
	"remote.jobs_path":    "/api/jobs/queue",
	"remote.timeout":      10 * time.Second,
	"log.level":           "info",
	"log.pretty":          false,
}

// LoadConfig loads configuration from environment variables.
// .env file is automatically loaded via autoload import.
func LoadConfig() (*Config, error) {
	v := New()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Provider = strings.TrimSpace(cfg.Provider)
	cfg.Remote.URL = strings.TrimRight(strings.TrimSpace(cfg.Remote.URL), "/")
	if cfg.Debug && cfg.Log.Level == "info" {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// New returns a viper instance bound to the CMS_ environment with defaults applied
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// DEBUG is honoured without the prefix as well
	_ = v.BindEnv("debug", EnvPrefix+"_DEBUG", "DEBUG")

	return v
}

// EnvName returns the environment variable that sets key
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
