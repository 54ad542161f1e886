package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestGetDefaultOpener(t *testing.T) {
	expected := map[string]string{
		"darwin":  "open",
		"linux":   "xdg-open",
		"windows": "start",
	}

	opener := getDefaultOpener()

	if expectedOpener, ok := expected[runtime.GOOS]; ok {
		if opener != expectedOpener {
			t.Errorf("getDefaultOpener() = %s, want %s for %s", opener, expectedOpener, runtime.GOOS)
		}
	} else if opener != "open" {
		t.Errorf("getDefaultOpener() = %s, want 'open' for unknown OS", opener)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Client.Debounce != 300*time.Millisecond {
		t.Errorf("Client.Debounce = %v, want 300ms", cfg.Client.Debounce)
	}
	if cfg.Client.MinChars != 2 {
		t.Errorf("Client.MinChars = %d, want 2", cfg.Client.MinChars)
	}
	if cfg.Server.GeneratePerMin != 10 {
		t.Errorf("Server.GeneratePerMin = %d, want 10", cfg.Server.GeneratePerMin)
	}
	if cfg.Archive.MaxPage != 100 {
		t.Errorf("Archive.MaxPage = %d, want 100", cfg.Archive.MaxPage)
	}
	if cfg.Archive.MaxTags != 3 {
		t.Errorf("Archive.MaxTags = %d, want 3", cfg.Archive.MaxTags)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
	}
	if cfg.Archive.UserAgent == "" {
		t.Error("Archive.UserAgent should not be empty")
	}
	if cfg.UI.Dark.Background == cfg.UI.Light.Background {
		t.Error("light and dark palettes should differ")
	}
	if cfg.Launcher.DefaultOpener == "" {
		t.Error("Launcher.DefaultOpener should not be empty")
	}
}

func TestLoad_DefaultConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatalf("Load() with an explicit missing file should fail, got %+v", cfg)
	}

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
	if cfg.Client.MinChars == 0 {
		t.Error("defaults were not applied")
	}
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "test-config.toml")
	configContent := `
[server]
addr = ":9999"
generate_per_minute = 4

[client]
base_url = "http://example.test"
debounce = "150ms"
min_chars = 3

[cache]
path = "/tmp/ficroll-test.db"
ttl = "30m"
`

	if writeErr := os.WriteFile(configPath, []byte(configContent), 0o644); writeErr != nil {
		t.Fatal(writeErr)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != ":9999" {
		t.Errorf("Server.Addr = %s, want ':9999'", cfg.Server.Addr)
	}
	if cfg.Server.GeneratePerMin != 4 {
		t.Errorf("Server.GeneratePerMin = %d, want 4", cfg.Server.GeneratePerMin)
	}
	if cfg.Client.BaseURL != "http://example.test" {
		t.Errorf("Client.BaseURL = %s", cfg.Client.BaseURL)
	}
	if cfg.Client.Debounce != 150*time.Millisecond {
		t.Errorf("Client.Debounce = %v, want 150ms", cfg.Client.Debounce)
	}
	if cfg.Client.MinChars != 3 {
		t.Errorf("Client.MinChars = %d, want 3", cfg.Client.MinChars)
	}
	if cfg.Cache.Path != "/tmp/ficroll-test.db" {
		t.Errorf("Cache.Path = %s", cfg.Cache.Path)
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("Cache.TTL = %v, want 30m", cfg.Cache.TTL)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Addr = ":7000"
	cfg.Archive.UserAgent = "test-save-agent"
	cfg.Archive.RequestDelay = 250 * time.Millisecond
	cfg.Client.Debounce = 500 * time.Millisecond
	cfg.UI.Dark.Primary = "#00FF00"

	savePath := filepath.Join(t.TempDir(), "nested", "saved-config.toml")
	if saveErr := Save(cfg, savePath); saveErr != nil {
		t.Fatalf("Save() error = %v", saveErr)
	}

	loaded, err := Load(savePath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.Server.Addr != ":7000" {
		t.Errorf("Loaded Server.Addr = %s", loaded.Server.Addr)
	}
	if loaded.Archive.UserAgent != "test-save-agent" {
		t.Errorf("Loaded Archive.UserAgent = %s", loaded.Archive.UserAgent)
	}
	if loaded.Archive.RequestDelay != 250*time.Millisecond {
		t.Errorf("Loaded Archive.RequestDelay = %v", loaded.Archive.RequestDelay)
	}
	if loaded.Client.Debounce != 500*time.Millisecond {
		t.Errorf("Loaded Client.Debounce = %v", loaded.Client.Debounce)
	}
}

func TestGenerateDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "generated.toml")
	if genErr := GenerateDefaultConfig(configPath); genErr != nil {
		t.Fatalf("GenerateDefaultConfig() error = %v", genErr)
	}

	if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
		t.Fatal("GenerateDefaultConfig() did not create file")
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load generated config: %v", err)
	}
	if cfg.Client.MinChars != 2 {
		t.Errorf("Generated config has Client.MinChars = %d, want 2", cfg.Client.MinChars)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := expandPath("~/x/state.db"); got != filepath.Join(home, "x", "state.db") {
		t.Errorf("expandPath(~/x/state.db) = %s", got)
	}
	if got := expandPath(""); got != "" {
		t.Errorf("expandPath(\"\") = %q, want empty", got)
	}
	if got := expandPath("rel.db"); !filepath.IsAbs(got) {
		t.Errorf("expandPath(rel.db) = %s, want absolute", got)
	}
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	if cfg == nil {
		t.Fatal("TestConfig() returned nil")
	}
	if cfg.Archive.UserAgent != "ficroll-test/1.0" {
		t.Errorf("TestConfig Archive.UserAgent = %s, want 'ficroll-test/1.0'", cfg.Archive.UserAgent)
	}
	if cfg.Archive.RequestDelay != 0 {
		t.Errorf("TestConfig Archive.RequestDelay = %v, want 0", cfg.Archive.RequestDelay)
	}
}
