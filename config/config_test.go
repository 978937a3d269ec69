package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}

	if cfg.MaxTurns != 9 {
		t.Errorf("Expected default max_turns 9, got %d", cfg.MaxTurns)
	}
	if cfg.CallTimeout != 30*time.Second {
		t.Errorf("Expected default call timeout 30s, got %s", cfg.CallTimeout)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("Expected default max retries 2, got %d", cfg.MaxRetries)
	}
	if len(cfg.DefaultRoster) != 3 {
		t.Errorf("Expected default roster of 3, got %v", cfg.DefaultRoster)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ROUNDTABLE_MAX_TURNS", "12")
	t.Setenv("ROUNDTABLE_ROSTER", "gpt, claude")
	t.Setenv("ROUNDTABLE_CALL_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.MaxTurns != 12 {
		t.Errorf("Expected max_turns 12, got %d", cfg.MaxTurns)
	}
	if len(cfg.DefaultRoster) != 2 || cfg.DefaultRoster[1] != "claude" {
		t.Errorf("Expected roster [gpt claude], got %v", cfg.DefaultRoster)
	}
	if cfg.CallTimeout != 5*time.Second {
		t.Errorf("Expected call timeout 5s, got %s", cfg.CallTimeout)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max_turns", func(c *Config) { c.MaxTurns = 0 }},
		{"negative max_turns", func(c *Config) { c.MaxTurns = -1 }},
		{"empty roster", func(c *Config) { c.DefaultRoster = nil }},
		{"unknown store", func(c *Config) { c.StoreBackend = "cassandra" }},
		{"zero timeout", func(c *Config) { c.CallTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Failed to load base config: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error")
			}
		})
	}
}

func TestProviderEnabled(t *testing.T) {
	p := ProviderConfig{}
	if p.Enabled() {
		t.Errorf("Provider without key should be disabled")
	}
	p.APIKey = "sk-test"
	if !p.Enabled() {
		t.Errorf("Provider with key should be enabled")
	}
}

func TestValidatorAccumulates(t *testing.T) {
	v := NewValidator()
	v.RequireNonEmpty("a", "").RequirePositive("b", 0)

	if !v.HasErrors() {
		t.Fatalf("Expected validation errors")
	}
	if len(v.Errors()) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(v.Errors()))
	}
	if v.Error() == nil {
		t.Errorf("Expected combined error")
	}
}
