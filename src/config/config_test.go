package config

import (
	"os"
	"path/filepath"
	"testing"
)

// -----------------------------------------------------------------------------

const minimalYAML = `
name: "nepse-observer"
host: "0.0.0.0"
port: 8080
storage:
  db_type: "sqlite"
  db_path: "test.db"
scraper:
  base_url: "https://nepalstock.com"
  price_url: "https://nepalstock.com/today-price"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// -----------------------------------------------------------------------------

func TestNewConfigAppliesDefaults(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Scraper.PageLimit != 50 {
		t.Errorf("expected default page limit 50, got %d", cfg.Scraper.PageLimit)
	}
	if cfg.Scraper.DetailBatchSize != 10 {
		t.Errorf("expected default batch size 10, got %d", cfg.Scraper.DetailBatchSize)
	}
	if cfg.Schedule.Timezone != "Asia/Kathmandu" {
		t.Errorf("expected default timezone, got %s", cfg.Schedule.Timezone)
	}
	if cfg.Schedule.UTCOffsetMinutes != 345 {
		t.Errorf("expected default offset 345, got %d", cfg.Schedule.UTCOffsetMinutes)
	}
	if cfg.Schedule.PriceCron == "" || cfg.Schedule.DetailCron == "" {
		t.Errorf("expected default cron expressions")
	}
	if len(cfg.Browser.BlockedResources) == 0 {
		t.Errorf("expected default blocked resources")
	}
}

// -----------------------------------------------------------------------------

func TestNewConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing name", `
host: "0.0.0.0"
port: 8080
storage: {db_type: "sqlite", db_path: "x.db"}
scraper: {base_url: "https://x", price_url: "https://x/p"}
`},
		{"bad port", `
name: "x"
host: "0.0.0.0"
port: 80
storage: {db_type: "sqlite", db_path: "x.db"}
scraper: {base_url: "https://x", price_url: "https://x/p"}
`},
		{"postgres without connection string", `
name: "x"
host: "0.0.0.0"
port: 8080
storage: {db_type: "postgres"}
scraper: {base_url: "https://x", price_url: "https://x/p"}
`},
		{"missing price url", `
name: "x"
host: "0.0.0.0"
port: 8080
storage: {db_type: "sqlite", db_path: "x.db"}
scraper: {base_url: "https://x"}
`},
	}

	for _, c := range cases {
		if _, err := NewConfig(writeConfig(t, c.yaml)); err == nil {
			t.Errorf("%s: expected a validation error", c.name)
		}
	}
}

// -----------------------------------------------------------------------------

func TestConfigSaveRoundTrip(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "saved.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded, err := NewConfig(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Name != cfg.Name || reloaded.Storage.DBPath != cfg.Storage.DBPath {
		t.Errorf("round trip mismatch: %+v vs %+v", reloaded.MConfig, cfg.MConfig)
	}
	if reloaded.Scraper.PageLimit != 50 {
		t.Errorf("expected defaults to survive the round trip, got %d", reloaded.Scraper.PageLimit)
	}
}
