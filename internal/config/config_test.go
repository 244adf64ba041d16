package config

import (
	"testing"
	"time"
)

func setRequiredSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("VTB_ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("VTB_REFRESH_TOKEN_SECRET", "refresh-secret")
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("VTB_ACCESS_TOKEN_SECRET", "")
	t.Setenv("VTB_REFRESH_TOKEN_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without token secrets")
	}
}

func TestLoadRejectsSharedSecret(t *testing.T) {
	t.Setenv("VTB_ACCESS_TOKEN_SECRET", "same")
	t.Setenv("VTB_REFRESH_TOKEN_SECRET", "same")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when both kinds share one secret")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequiredSecrets(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("unexpected access TTL %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 10*24*time.Hour {
		t.Fatalf("unexpected refresh TTL %v", cfg.RefreshTokenTTL)
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("unexpected bcrypt cost %d", cfg.BcryptCost)
	}
	if cfg.Mongo.Database != "videoplatform" {
		t.Fatalf("unexpected database %q", cfg.Mongo.Database)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Fatal("expected kafka disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("VTB_ACCESS_TOKEN_TTL", "1h")
	t.Setenv("VTB_KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Fatalf("unexpected access TTL %v", cfg.AccessTokenTTL)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
}
