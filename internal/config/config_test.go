package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SITE_PUBLIC_URL", "https://example.test/")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.PublicBaseURL != "https://example.test" {
		t.Errorf("PublicBaseURL = %q, want trailing slash trimmed", cfg.PublicBaseURL)
	}
	if cfg.SheetRange != "Submissions!A6:H" {
		t.Errorf("SheetRange = %q", cfg.SheetRange)
	}
	if cfg.PageCacheTTL != 5*time.Minute {
		t.Errorf("PageCacheTTL = %v, want 5m", cfg.PageCacheTTL)
	}
	if cfg.CacheEnabled() {
		t.Error("cache should be disabled without REDIS_URL")
	}
	if cfg.SheetEnabled() {
		t.Error("sheet should be disabled without CONTACT_SHEET_ID")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("SITE_PAGE_CACHE_TTL", "90s")
	t.Setenv("CONTACT_SHEET_ID", "sheet-123")
	t.Setenv("SITE_LOG_DEVELOPMENT", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.CacheEnabled() || cfg.PageCacheTTL != 90*time.Second {
		t.Errorf("cache config = %v/%v", cfg.CacheEnabled(), cfg.PageCacheTTL)
	}
	if !cfg.SheetEnabled() {
		t.Error("sheet should be enabled")
	}
	if !cfg.LogDevelopment {
		t.Error("LogDevelopment should be true")
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("SITE_TIMEZONE", "Mars/Olympus")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("SITE_PAGE_CACHE_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
