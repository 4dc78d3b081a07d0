package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Bulk    BulkConfig    `mapstructure:"bulk"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds iCards API connection details
type APIConfig struct {
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RetryConfig tunes the request retry loop
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
}

// BulkConfig contains bulk tagging settings
type BulkConfig struct {
	// MaxFlashcards caps criteria-based selections. Zero disables
	// the cap.
	MaxFlashcards int `mapstructure:"max_flashcards"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
