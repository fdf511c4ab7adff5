package config

import "testing"

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/scribe")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.SessionTTLHours != 12 {
		t.Errorf("SessionTTLHours = %d, want 12", cfg.SessionTTLHours)
	}
	if cfg.CompletionMaxTokens != 1500 {
		t.Errorf("CompletionMaxTokens = %d, want 1500", cfg.CompletionMaxTokens)
	}
	if cfg.CompletionTemperature != 0.1 {
		t.Errorf("CompletionTemperature = %v, want 0.1", cfg.CompletionTemperature)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode by default")
	}
	if cfg.CompletionConfigured() {
		t.Error("completion should not be configured by default")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Env: "production", SessionTTLHours: 12, CompletionMaxTokens: 1500, CompletionTemperature: 0.1}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error: production without SESSION_SECRET")
	}
	cfg.SessionSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.SessionTTLHours = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error: zero session TTL")
	}
}

func TestCompletionConfigured(t *testing.T) {
	cfg := &Config{
		CompletionEndpoint:   "https://example.openai.azure.com",
		CompletionAPIKey:     "key",
		CompletionDeployment: "gpt-4o",
	}
	if !cfg.CompletionConfigured() {
		t.Error("expected completion to be configured")
	}
	cfg.CompletionAPIKey = ""
	if cfg.CompletionConfigured() {
		t.Error("expected completion to be unconfigured without API key")
	}
}
