package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("EDIT_SESSION_TTL", "not-a-duration")
	t.Setenv("PAGINATION_LIMIT", "-5")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("STORAGE_DRIVER", "S3")

	cfg := Load()

	if !cfg.IsProduction() || cfg.IsDevelopment() {
		t.Fatalf("expected production env, got %q", cfg.Env)
	}
	if cfg.EditSessionTTL != 2*time.Hour {
		t.Fatalf("expected fallback ttl 2h, got %s", cfg.EditSessionTTL)
	}
	if cfg.PaginationLimit != 20 {
		t.Fatalf("expected fallback pagination 20, got %d", cfg.PaginationLimit)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %#v", cfg.AllowedOrigins)
	}
	if !cfg.UsesS3() {
		t.Fatalf("expected s3 driver")
	}
}
