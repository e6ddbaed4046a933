// Package config handles configuration loading for finmodel.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FINMODEL_TELEGRAM_TOKEN.
const EnvPrefix = "FINMODEL"

// Config represents the complete application configuration.
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	LLM      LLMConfig      `mapstructure:"llm"      yaml:"llm"`
	Report   ReportConfig   `mapstructure:"report"   yaml:"report"`
	Store    StoreConfig    `mapstructure:"store"    yaml:"store"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Prompts  PromptsConfig  `mapstructure:"prompts"  yaml:"prompts"`
	Limits   LimitsConfig   `mapstructure:"limits"   yaml:"limits"`
}

// TelegramConfig holds the bot token and long-polling settings.
type TelegramConfig struct {
	Token          string `mapstructure:"token"        yaml:"token"`
	PollTimeoutSec int    `mapstructure:"poll_timeout" yaml:"poll_timeout"`
	Debug          bool   `mapstructure:"debug"        yaml:"debug"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// Addr returns host:port for net/http.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// LLMConfig controls the narrative collaborator.
type LLMConfig struct {
	ModelsFile string `mapstructure:"models_file" yaml:"models_file"` // agent routing (models.yaml)
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	Disabled   bool   `mapstructure:"disabled"    yaml:"disabled"`
}

// Timeout returns the narrative deadline.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSec) * time.Second
}

// ReportConfig holds workbook output settings.
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// StoreConfig selects where in-progress sessions live.
type StoreConfig struct {
	Driver      string `mapstructure:"driver"       yaml:"driver"` // "memory" or "postgres"
	DatabaseURL string `mapstructure:"database_url" yaml:"database_url"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// PromptsConfig points at the prompt library root (containing prompts/).
type PromptsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LimitsConfig bounds what a single request may ask for.
type LimitsConfig struct {
	MaxHorizon int `mapstructure:"max_horizon" yaml:"max_horizon"` // years; 0 disables
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.finmodel/config.yaml (home directory)
//  3. /etc/finmodel/config.yaml (system)
//
// Environment variables override config file values.
// Format: FINMODEL_<SECTION>_<KEY>, e.g., FINMODEL_TELEGRAM_TOKEN
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".finmodel"))
	v.AddConfigPath("/etc/finmodel")

	// Config file not found is fine: defaults + env vars
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.poll_timeout", 60)
	v.SetDefault("telegram.debug", false)

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)

	v.SetDefault("llm.models_file", "config/models.yaml")
	v.SetDefault("llm.timeout_sec", 60)
	v.SetDefault("llm.disabled", false)

	v.SetDefault("report.output_dir", "reports")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.database_url", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("prompts.dir", "resources")

	v.SetDefault("limits.max_horizon", 100)
}

// overrideFromEnv reads the conventional unprefixed variables for secrets
// when the prefixed form is absent.
func overrideFromEnv(cfg *Config) {
	if cfg.Telegram.Token == "" {
		cfg.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if cfg.Store.DatabaseURL == "" {
		cfg.Store.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" && os.Getenv(EnvPrefix+"_LOGGING_LEVEL") == "" {
		cfg.Logging.Level = lvl
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
