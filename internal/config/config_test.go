package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppName != "sinkmux-relay" {
		t.Fatalf("app_name = %q", cfg.AppName)
	}
	if cfg.SourceFile != "-" {
		t.Fatalf("source_file = %q, want stdin marker", cfg.SourceFile)
	}
	if cfg.ReconnectBackoff != 5*time.Second {
		t.Fatalf("reconnect backoff = %s", cfg.ReconnectBackoff)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RECONNECT_BACKOFF_SECONDS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log_level = %q", cfg.LogLevel)
	}
	if cfg.ReconnectBackoff != 2*time.Second {
		t.Fatalf("reconnect backoff = %s", cfg.ReconnectBackoff)
	}
}

func TestLoadRejectsBadBackoff(t *testing.T) {
	t.Setenv("RECONNECT_BACKOFF_SECONDS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero backoff")
	}
}
