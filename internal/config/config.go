package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultDBPath   = "./dev.db"
	defaultPort     = "8080"
	defaultLogLevel = "info"
	defaultEnv      = "production"
	defaultBaseline = "fy2025"
	defaultFXRate   = 24.0

	minFXRate = 10.0
	maxFXRate = 50.0
)

// Config holds application configuration sourced from the environment, a
// local .env file and an optional config file.
type Config struct {
	Port            string  `mapstructure:"port"`
	DBPath          string  `mapstructure:"db_path"`
	LogLevel        string  `mapstructure:"log_level"`
	Env             string  `mapstructure:"app_env"`
	DefaultBaseline string  `mapstructure:"default_baseline"`
	DefaultFXRate   float64 `mapstructure:"default_fx_rate"`
}

// IsDev reports whether the app runs in development mode.
func (c Config) IsDev() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}

// Load reads configuration. Environment variables win over configFile,
// which wins over built-in defaults. configFile may be empty.
func Load(configFile string) (Config, error) {
	// Best-effort: load local dev environment variables.
	// Production should use real env injection.
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	v := viper.New()
	defaults := map[string]any{
		"port":             defaultPort,
		"db_path":          defaultDBPath,
		"log_level":        defaultLogLevel,
		"app_env":          defaultEnv,
		"default_baseline": defaultBaseline,
		"default_fx_rate":  defaultFXRate,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, validate(cfg)
}

func validate(cfg Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("port is required")
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if cfg.DefaultFXRate < minFXRate || cfg.DefaultFXRate > maxFXRate {
		return fmt.Errorf("default_fx_rate must be between %g and %g, got %g", minFXRate, maxFXRate, cfg.DefaultFXRate)
	}
	return nil
}
