package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Load loads the configuration from file and environment. A missing
// config file is only an error when an explicit path was given; the
// server can run on environment variables alone.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("icards")
	v.AutomaticEnv()
	// The backend's own deployments export AUTH_TOKEN, accept it too.
	_ = v.BindEnv("api.token", "ICARDS_API_TOKEN", "AUTH_TOKEN")
	_ = v.BindEnv("api.url", "ICARDS_API_URL")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".icards-mcp"))
		}

		// Check /etc
		v.AddConfigPath("/etc/icards-mcp/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		if configPath != "" {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.url", "http://localhost:3000")
	v.SetDefault("api.timeout", 30*time.Second)

	// Retry defaults
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", time.Second)

	// Bulk tagging defaults
	v.SetDefault("bulk.max_flashcards", 0)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.API.URL == "" {
		return fmt.Errorf("api.url is required")
	}

	if cfg.API.Token == "" || cfg.API.Token == "your-token-here" {
		return fmt.Errorf("api.token must be set to a valid bearer token")
	}

	if cfg.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}

	if cfg.Retry.BaseDelay < 0 {
		return fmt.Errorf("retry.base_delay must not be negative")
	}

	if cfg.Bulk.MaxFlashcards < 0 {
		return fmt.Errorf("bulk.max_flashcards must not be negative")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
