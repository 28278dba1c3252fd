// internal/config/config_test.go
package config

import (
	"strings"
	"testing"
	"time"
)

func baseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        "9723",
			ReadTimeout: 30 * time.Second,
		},
		Printing: PrintingConfig{
			MaxImageWidth:   384,
			DispatchTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
		App:     AppConfig{Environment: "production"},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validate(baseConfig()); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRejectsNonLoopbackHost(t *testing.T) {
	for _, host := range []string{"0.0.0.0", "192.168.1.10", ""} {
		cfg := baseConfig()
		cfg.Server.Host = host
		err := validate(cfg)
		if err == nil {
			t.Errorf("host %q: expected validation error", host)
			continue
		}
		if !strings.Contains(err.Error(), "loopback") {
			t.Errorf("host %q: error = %v, want loopback complaint", host, err)
		}
	}
}

func TestValidateAcceptsLoopbackVariants(t *testing.T) {
	for _, host := range []string{"127.0.0.1", "localhost", "::1"} {
		cfg := baseConfig()
		cfg.Server.Host = host
		if err := validate(cfg); err != nil {
			t.Errorf("host %q: validate: %v", host, err)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"zero image width", func(c *Config) { c.Printing.MaxImageWidth = 0 }},
		{"bogus log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)
			if err := validate(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestIsDebugEnabled(t *testing.T) {
	tests := []struct {
		environment string
		debug       bool
		want        bool
	}{
		{"production", false, false},
		{"production", true, true},
		{"development", false, true},
		{"development", true, true},
	}

	for _, tt := range tests {
		cfg := baseConfig()
		cfg.App.Environment = tt.environment
		cfg.App.Debug = tt.debug
		if got := cfg.IsDebugEnabled(); got != tt.want {
			t.Errorf("environment %q debug %v: IsDebugEnabled() = %v, want %v",
				tt.environment, tt.debug, got, tt.want)
		}
	}
}

func TestGetServerAddr(t *testing.T) {
	cfg := baseConfig()
	if got := cfg.GetServerAddr(); got != "127.0.0.1:9723" {
		t.Fatalf("GetServerAddr() = %q, want 127.0.0.1:9723", got)
	}
}
