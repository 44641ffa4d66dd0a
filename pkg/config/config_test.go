package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.UI.MaxSuggestions != 10 {
		t.Errorf("expected 10 max suggestions, got %d", cfg.UI.MaxSuggestions)
	}
	if cfg.UI.BlurDelayMs != 150 {
		t.Errorf("expected blur delay 150, got %d", cfg.UI.BlurDelayMs)
	}
	if !cfg.WatchEnabled() {
		t.Error("expected watching to default to on")
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.UI.MaxSuggestions != 10 {
		t.Errorf("expected default config, got %+v", cfg.UI)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
user: alice
catalogs:
  - ~/catalogs/images.jsonl
  - /srv/catalog/images.db
history_path: ~/omnibar/history.db
watch: false
ui:
  max_suggestions: 5
  blur_delay_ms: 0
  default_query: "is:used -scaler:windows"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.User != "alice" {
		t.Errorf("expected user alice, got %q", cfg.User)
	}
	home, _ := os.UserHomeDir()
	if len(cfg.Catalogs) != 2 || cfg.Catalogs[0] != filepath.Join(home, "catalogs/images.jsonl") {
		t.Errorf("expected expanded catalogs, got %v", cfg.Catalogs)
	}
	if cfg.ResolvedHistoryPath() != filepath.Join(home, "omnibar/history.db") {
		t.Errorf("unexpected history path %q", cfg.ResolvedHistoryPath())
	}
	if cfg.WatchEnabled() {
		t.Error("expected watch: false to disable watching")
	}
	if cfg.UI.MaxSuggestions != 5 || cfg.UI.BlurDelayMs != 0 {
		t.Errorf("unexpected ui config %+v", cfg.UI)
	}
	if cfg.UI.DefaultQuery != "is:used -scaler:windows" {
		t.Errorf("unexpected default query %q", cfg.UI.DefaultQuery)
	}
}

func TestLoadFrom_InvalidValuesFallBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("ui:\n  max_suggestions: -1\n  blur_delay_ms: -5\n"), 0o644)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.UI.MaxSuggestions != 10 || cfg.UI.BlurDelayMs != 150 {
		t.Errorf("expected defaults for invalid values, got %+v", cfg.UI)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("catalogs: [unclosed"), 0o644)

	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.User = "file-user"
	cfg.Catalogs = []string{"/from/file.jsonl"}

	env := map[string]string{
		EnvUser:    " env-user ",
		EnvCatalog: "/a.jsonl" + string(os.PathListSeparator) + string(os.PathListSeparator) + "/b.db",
	}
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.User != "env-user" {
		t.Errorf("expected env user, got %q", cfg.User)
	}
	if len(cfg.Catalogs) != 2 || cfg.Catalogs[0] != "/a.jsonl" || cfg.Catalogs[1] != "/b.db" {
		t.Errorf("unexpected catalogs %v", cfg.Catalogs)
	}

	unchanged := DefaultConfig()
	unchanged.User = "kept"
	unchanged.ApplyEnv(func(string) string { return "" })
	if unchanged.User != "kept" {
		t.Errorf("empty env should not override, got %q", unchanged.User)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.User = "bob"
	cfg.Catalogs = []string{"/tmp/images.jsonl"}
	off := false
	cfg.Watch = &off

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.User != "bob" || len(loaded.Catalogs) != 1 || loaded.WatchEnabled() {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestXDGDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")

	if got := ConfigPath(); got != "/xdg/config/omnibar/config.yaml" {
		t.Errorf("ConfigPath = %q", got)
	}
	if got := DefaultConfig().ResolvedHistoryPath(); got != "/xdg/state/omnibar/history.db" {
		t.Errorf("ResolvedHistoryPath = %q", got)
	}
}

func TestLoadAppliesEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvUser, "carol")
	t.Setenv(EnvCatalog, "")

	os.MkdirAll(filepath.Join(dir, "omnibar"), 0o755)
	os.WriteFile(filepath.Join(dir, "omnibar", "config.yaml"), []byte("user: alice\n"), 0o644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.User != "carol" {
		t.Errorf("expected env to override file, got %q", cfg.User)
	}
}
