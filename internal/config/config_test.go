package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.Server.Addr != ":8085" {
		t.Fatalf("default addr: got %q", cfg.Server.Addr)
	}
	if cfg.Database.SQLitePath != "data/plots.db" {
		t.Fatalf("default db path: got %q", cfg.Database.SQLitePath)
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	blob := []byte("server:\n  addr: \":9000\"\ngis:\n  base_url: https://gis.local/api\nsheets:\n  sheet_id: sheet-42\n")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GIS_API_KEY", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Fatalf("yaml addr lost: %q", cfg.Server.Addr)
	}
	if cfg.GIS.BaseURL != "https://gis.local/api" {
		t.Fatalf("yaml gis url lost: %q", cfg.GIS.BaseURL)
	}
	if cfg.GIS.APIKey != "from-env" {
		t.Fatalf("env override lost: %q", cfg.GIS.APIKey)
	}
	if cfg.Sheets.SheetID != "sheet-42" {
		t.Fatalf("sheet id lost: %q", cfg.Sheets.SheetID)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not: a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
