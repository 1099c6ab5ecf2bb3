package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gomathyk/sinkmux/internal/config"
	"github.com/gomathyk/sinkmux/internal/statestore"
)

func writeSinkFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "sinks.yaml")
	raw := `
stream:
  id: readings
sink:
  type: log
destinations:
  - prefix: alpha
  - prefix: beta
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write sink file: %v", err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		AppName:          "sinkmux-relay",
		LogLevel:         "error",
		SinksFile:        writeSinkFile(t, dir),
		StatePath:        filepath.Join(dir, "state.db"),
		ReconnectBackoff: 10 * time.Millisecond,
	}
}

func TestRelayDistributesAndPersistsSnapshot(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	relay, err := NewRelay(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}

	source := strings.NewReader("one\ntwo\nthree\nfour\n")
	if err := relay.Run(ctx, source); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Snapshot was persisted on shutdown with the round-robin split.
	store, err := statestore.Open(cfg.StatePath)
	if err != nil {
		t.Fatalf("reopen state store: %v", err)
	}
	defer store.Close()

	snapshot, ok, err := store.Load("readings")
	if err != nil || !ok {
		t.Fatalf("Load snapshot: %v, found=%v", err, ok)
	}
	delivered, ok := snapshot["delivered"].(map[string]any)
	if !ok {
		t.Fatalf("snapshot = %#v", snapshot)
	}
	if delivered["0"] != float64(2) || delivered["1"] != float64(2) {
		t.Fatalf("delivered = %#v, want 2 per destination", delivered)
	}
}

func TestRelayRestoresSnapshotAcrossRuns(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	relay, err := NewRelay(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	if err := relay.Run(ctx, strings.NewReader("one\ntwo\n")); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// A second run over the same state path continues the counts.
	relay2, err := NewRelay(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("second NewRelay: %v", err)
	}
	if err := relay2.Run(ctx, strings.NewReader("three\nfour\n")); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	store, err := statestore.Open(cfg.StatePath)
	if err != nil {
		t.Fatalf("reopen state store: %v", err)
	}
	defer store.Close()

	snapshot, _, err := store.Load("readings")
	if err != nil {
		t.Fatalf("Load snapshot: %v", err)
	}
	delivered := snapshot["delivered"].(map[string]any)
	if delivered["0"] != float64(2) || delivered["1"] != float64(2) {
		t.Fatalf("delivered = %#v, want accumulated 2 per destination", delivered)
	}
}

func TestNewRelayFailsOnBadSinkFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sinks.yaml")
	raw := `
sink:
  type: log
destinations:
  - prefix: alpha
  - prefix: ""
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write sink file: %v", err)
	}

	cfg := testConfig(t)
	cfg.SinksFile = path
	if _, err := NewRelay(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected configuration error for empty destination value")
	}
}
