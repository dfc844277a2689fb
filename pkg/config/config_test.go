package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("theme = %q, want dark", cfg.UI.Theme)
	}
	if cfg.Browse.SearchDebounceMs != 350 {
		t.Errorf("debounce = %d, want 350", cfg.Browse.SearchDebounceMs)
	}
	if cfg.Browse.ScanBatchSize != 100 {
		t.Errorf("scan batch = %d, want 100", cfg.Browse.ScanBatchSize)
	}
	if !cfg.ConfirmSwitch() {
		t.Error("confirm_switch should default to true")
	}
}

func TestLoadFromParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
ui:
  theme: light
  headless: true
browse:
  search_debounce_ms: 200
  scan_batch_size: 500
  confirm_switch: false
storage:
  profile_db: /var/lib/warren/profiles.sqlite3
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UI.Theme != "light" || !cfg.UI.Headless {
		t.Errorf("ui not parsed: %+v", cfg.UI)
	}
	if cfg.Browse.SearchDebounceMs != 200 {
		t.Errorf("debounce = %d, want 200", cfg.Browse.SearchDebounceMs)
	}
	if cfg.Browse.ScanBatchSize != 500 {
		t.Errorf("scan batch = %d, want 500", cfg.Browse.ScanBatchSize)
	}
	if cfg.ConfirmSwitch() {
		t.Error("confirm_switch override lost")
	}
	if cfg.ProfileDBPath() != "/var/lib/warren/profiles.sqlite3" {
		t.Errorf("profile db = %q", cfg.ProfileDBPath())
	}
}

func TestLoadFromRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ui: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("malformed yaml should error")
	}
}

func TestLoadFromClampsZeroTunables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "browse:\n  search_debounce_ms: -5\n  scan_batch_size: 0\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Browse.SearchDebounceMs != 350 || cfg.Browse.ScanBatchSize != 100 {
		t.Errorf("tunables not clamped: %+v", cfg.Browse)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.UI.Theme = "light"
	cfg.Browse.ScanBatchSize = 250
	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.UI.Theme != "light" || got.Browse.ScanBatchSize != 250 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestXDGDirsHonorEnv(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")

	if got := ConfigDir(); got != "/tmp/xdg-config/warren" {
		t.Errorf("ConfigDir = %q", got)
	}
	if got := DataDir(); got != "/tmp/xdg-data/warren" {
		t.Errorf("DataDir = %q", got)
	}
	if got := StateDir(); got != "/tmp/xdg-state/warren" {
		t.Errorf("StateDir = %q", got)
	}
	if got := DefaultConfig().ProfileDBPath(); got != "/tmp/xdg-data/warren/profiles.sqlite3" {
		t.Errorf("ProfileDBPath = %q", got)
	}
}
