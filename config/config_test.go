package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		API: APIConfig{
			URL:     "http://localhost:3000",
			Token:   "valid-token",
			Timeout: 30 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing URL",
			mutate:  func(c *Config) { c.API.URL = "" },
			wantErr: true,
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.API.Token = "" },
			wantErr: true,
		},
		{
			name:    "placeholder token",
			mutate:  func(c *Config) { c.API.Token = "your-token-here" },
			wantErr: true,
		},
		{
			name:    "zero retry attempts",
			mutate:  func(c *Config) { c.Retry.MaxAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "negative base delay",
			mutate:  func(c *Config) { c.Retry.BaseDelay = -time.Second },
			wantErr: true,
		},
		{
			name:    "negative bulk cap",
			mutate:  func(c *Config) { c.Bulk.MaxFlashcards = -1 },
			wantErr: true,
		},
		{
			name:    "invalid logging level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "invalid logging format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("ICARDS_API_TOKEN", "env-token")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Token != "env-token" {
		t.Errorf("API.Token = %q, want %q", cfg.API.Token, "env-token")
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Retry.MaxAttempts = %d, want default 3", cfg.Retry.MaxAttempts)
	}
}
