package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/daybook-app/daybook/internal/config"
)

func TestLoadFirstRunWritesTemplate(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cloud.BaseURL != config.DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", cfg.Cloud.BaseURL)
	}
	if cfg.Serve.Addr != config.DefaultAddr {
		t.Errorf("Addr = %q, want default", cfg.Serve.Addr)
	}
	if cfg.Sync.Enabled {
		t.Error("Sync.Enabled = true on first run, want false")
	}

	// The annotated template must exist and parse on the second load.
	path := filepath.Join(home, ".daybook", "config.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("template not written: %v", err)
	}
	again, err := config.Load()
	if err != nil {
		t.Fatalf("Load of written template: %v", err)
	}
	if again.Cloud.ClientID != config.DefaultClientID {
		t.Errorf("ClientID = %q, want default", again.Cloud.ClientID)
	}
}

func TestLoadPartialFileBackfillsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".daybook")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	partial := `// only the sync section is customised
{
  "sync": {"enabled": true, "interval_minutes": 5}
}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(partial), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Sync.Enabled {
		t.Error("Sync.Enabled = false, want true")
	}
	if cfg.Sync.IntervalMinutes != 5 {
		t.Errorf("IntervalMinutes = %d, want 5", cfg.Sync.IntervalMinutes)
	}
	if cfg.Cloud.BaseURL != config.DefaultBaseURL {
		t.Errorf("BaseURL = %q, want backfilled default", cfg.Cloud.BaseURL)
	}
	if len(cfg.Serve.AllowedOrigins) == 0 {
		t.Error("AllowedOrigins not backfilled")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".daybook")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load()
	if err == nil {
		t.Fatal("expected error for malformed config")
	}
	// Defaults still come back so callers can keep going.
	if cfg.Cloud.BaseURL != config.DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default on parse failure", cfg.Cloud.BaseURL)
	}
}

func TestCloudEndpointDerivation(t *testing.T) {
	c := config.CloudConfig{BaseURL: "https://cloud.example.com"}
	if got := c.DeviceAuthEndpoint(); got != "https://cloud.example.com/oauth2/devicecode" {
		t.Errorf("DeviceAuthEndpoint = %q", got)
	}
	if got := c.TokenEndpoint(); got != "https://cloud.example.com/oauth2/token" {
		t.Errorf("TokenEndpoint = %q", got)
	}

	c.DeviceAuthURL = "https://login.example.com/device"
	c.TokenURL = "https://login.example.com/token"
	if got := c.DeviceAuthEndpoint(); got != "https://login.example.com/device" {
		t.Errorf("DeviceAuthEndpoint override = %q", got)
	}
	if got := c.TokenEndpoint(); got != "https://login.example.com/token" {
		t.Errorf("TokenEndpoint override = %q", got)
	}
}
