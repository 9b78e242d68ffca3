package infra

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/congo-pay/congo_vault/internal/infra/migrations"
)

func TestMissingURL(t *testing.T) {
	ctx := context.Background()
	if _, err := NewPostgresPool(ctx, ""); !errors.Is(err, ErrMissingURL) {
		t.Fatalf("expected ErrMissingURL, got %v", err)
	}
	if _, err := NewRedisClient(ctx, ""); !errors.Is(err, ErrMissingURL) {
		t.Fatalf("expected ErrMissingURL, got %v", err)
	}
}

func TestNewRedisClient(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()
}

func TestMigrationsEmbedded(t *testing.T) {
	raw, err := fs.ReadFile(migrations.FS, "00001_init.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sql := string(raw)
	for _, table := range []string{"accounts", "token_accounts", "mints", "processed_signatures"} {
		if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Fatalf("migration does not create %s", table)
		}
	}
	if !strings.Contains(sql, "-- +goose Down") {
		t.Fatal("migration has no down section")
	}
}
