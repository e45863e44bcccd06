package config

import "testing"

func TestIsDev(t *testing.T) {
	cfg := &Config{Env: "development"}
	if !cfg.IsDev() {
		t.Error("expected IsDev to be true for ENV=development")
	}

	cfg.Env = "production"
	if cfg.IsDev() {
		t.Error("expected IsDev to be false for ENV=production")
	}
	if !cfg.IsProduction() {
		t.Error("expected IsProduction to be true for ENV=production")
	}
}

func TestValidate_RequiresJWTSecretOutsideDev(t *testing.T) {
	cfg := &Config{Env: "production"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when JWT_SECRET is empty in production")
	}

	cfg.JWTSecret = "supersecret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error with JWT_SECRET set: %v", err)
	}
}

func TestValidate_DevModeNeedsNoSecret(t *testing.T) {
	cfg := &Config{Env: "development"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error in development mode: %v", err)
	}
}

func TestValidate_RejectsNegativeRateLimit(t *testing.T) {
	cfg := &Config{Env: "development", RateLimitRPS: -1}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative RATE_LIMIT_RPS")
	}
}
