package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "18080")
	t.Setenv("DB_USER", "lab")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "labseat_test")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg := Load()
	if cfg.SessionTTLHours != 24 {
		t.Fatalf("expected default session TTL 24h, got %d", cfg.SessionTTLHours)
	}
	if cfg.VerifyTTLMin != 10 {
		t.Fatalf("expected default verify TTL 10m, got %d", cfg.VerifyTTLMin)
	}
	if cfg.ClockSkewMin != 60 {
		t.Fatalf("expected default skew 60m, got %d", cfg.ClockSkewMin)
	}
	if cfg.MaxSessionHours != 8 {
		t.Fatalf("expected default max session 8h, got %d", cfg.MaxSessionHours)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_TTL_HOURS", "12")
	t.Setenv("VERIFY_TTL_MIN", "5")
	t.Setenv("BCRYPT_COST", "10")

	cfg := Load()
	if cfg.SessionTTLHours != 12 || cfg.VerifyTTLMin != 5 || cfg.BcryptCost != 10 {
		t.Fatalf("expected overrides, got %+v", cfg)
	}
	if cfg.JWTSecret != "test-secret" {
		t.Fatalf("expected JWT_SECRET override, got %s", cfg.JWTSecret)
	}
}

func TestRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Fatalf("expected capacity clamped to 1, got %d", cfg.Capacity)
	}
	if cfg.TTL < 5*cfg.RefillInterval {
		t.Fatalf("expected TTL raised to 5x refill interval, got %s", cfg.TTL)
	}
	if cfg.RefillInterval != 2*time.Second {
		t.Fatalf("expected refill interval 2s, got %s", cfg.RefillInterval)
	}
}
