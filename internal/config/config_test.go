package config

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", "")
	t.Setenv("PROGRAM_ID", "")
	t.Setenv("ADMIN_TOKEN", "")
	t.Setenv(shutdownSecondsEnvVar, "")
	t.Setenv(shutdownDurationEnvVar, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ProgramID.String() != defaultProgramID {
		t.Fatalf("unexpected program id %s", cfg.ProgramID)
	}
	if cfg.ShutdownPeriod != defaultShutdownDelay {
		t.Fatalf("unexpected shutdown period %v", cfg.ShutdownPeriod)
	}
	if cfg.AdminTokenHash != nil {
		t.Fatal("expected admin routes disabled by default")
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
}

func TestLoadRequiresInfraOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing DATABASE_URL error")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/vault")
	if _, err := Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoadDurationsAndLimits(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("IDEMPOTENCY_TTL", "90m")
	t.Setenv("SIGNER_RATE_LIMIT", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ShutdownPeriod != 3*time.Second {
		t.Fatalf("unexpected shutdown period %v", cfg.ShutdownPeriod)
	}
	if cfg.IdempotencyTTL != 90*time.Minute {
		t.Fatalf("unexpected idempotency ttl %v", cfg.IdempotencyTTL)
	}
	if cfg.SignerRateLimit != 5 {
		t.Fatalf("unexpected signer rate limit %d", cfg.SignerRateLimit)
	}

	t.Setenv("BATCH_CONCURRENCY", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected invalid BATCH_CONCURRENCY error")
	}
}

func TestLoadRejectsInvalidProgramID(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PROGRAM_ID", "not-base58-0OIl")

	if _, err := Load(); err == nil {
		t.Fatal("expected invalid PROGRAM_ID error")
	}
}

func TestHashOrRead(t *testing.T) {
	hash, err := hashOrRead("operator-token")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte("operator-token")); err != nil {
		t.Fatalf("hash does not match token: %v", err)
	}

	again, err := hashOrRead(string(hash))
	if err != nil {
		t.Fatalf("read hash: %v", err)
	}
	if string(again) != string(hash) {
		t.Fatal("expected existing bcrypt hash to be kept")
	}
}
