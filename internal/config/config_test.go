package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "fulqrun-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "fulqrun-auth")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.SyncMaxAttempts != 3 {
		t.Errorf("SyncMaxAttempts = %d, want 3", cfg.SyncMaxAttempts)
	}
	if cfg.EventKafkaTopic != "fulqrun-events" {
		t.Errorf("EventKafkaTopic = %q, want %q", cfg.EventKafkaTopic, "fulqrun-events")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("JWT_ACCESS_TTL", "30m")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9999")
	}
	if got := cfg.AccessTTL(); got != 30*time.Minute {
		t.Errorf("AccessTTL() = %v, want 30m", got)
	}
	brokers := cfg.EventKafkaBrokersList()
	if len(brokers) != 2 || brokers[0] != "b1:9092" || brokers[1] != "b2:9092" {
		t.Errorf("EventKafkaBrokersList() = %v, want [b1:9092 b2:9092]", brokers)
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	t.Setenv("BCRYPT_COST", "99")
	if _, err := Load(); err == nil {
		t.Fatal("Load() with BCRYPT_COST=99 expected error, got nil")
	}
}

func TestConfig_TTLFallbacks(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "garbage", JWTRefreshTTL: ""}
	if got := cfg.AccessTTL(); got != 15*time.Minute {
		t.Errorf("AccessTTL() = %v, want 15m", got)
	}
	if got := cfg.RefreshTTL(); got != 168*time.Hour {
		t.Errorf("RefreshTTL() = %v, want 168h", got)
	}
	if got := cfg.SyncVisibilityDuration(); got != 30*time.Second {
		t.Errorf("SyncVisibilityDuration() = %v, want 30s", got)
	}
	if got := cfg.SyncRetryDelayDuration(); got != 5*time.Second {
		t.Errorf("SyncRetryDelayDuration() = %v, want 5s", got)
	}
}
