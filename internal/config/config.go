package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the relay configuration loaded from files and environment
// variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	SinksFile  string `mapstructure:"sinks_file"`
	SourceFile string `mapstructure:"source_file"`
	StatePath  string `mapstructure:"state_path"`

	ReconnectBackoffSeconds int64         `mapstructure:"reconnect_backoff_seconds"`
	ReconnectBackoff        time.Duration `mapstructure:"-"`
	MaxReconnectAttempts    int           `mapstructure:"max_reconnect_attempts"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "sinkmux-relay")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("sinks_file", "./configs/sinks.yaml")
	v.SetDefault("source_file", "-") // "-" reads events from stdin
	v.SetDefault("state_path", "./data/state.db")
	v.SetDefault("reconnect_backoff_seconds", 5)
	v.SetDefault("max_reconnect_attempts", 0) // 0 = unlimited

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.ReconnectBackoffSeconds <= 0 {
		return nil, fmt.Errorf("invalid reconnect_backoff_seconds (must be positive seconds)")
	}
	cfg.ReconnectBackoff = time.Duration(cfg.ReconnectBackoffSeconds) * time.Second

	if cfg.MaxReconnectAttempts < 0 {
		return nil, fmt.Errorf("invalid max_reconnect_attempts (must be >= 0)")
	}

	return &cfg, nil
}
