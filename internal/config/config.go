// Package config loads application configuration from a YAML file with
// environment variable overrides. Config is loaded once at startup and
// read-only afterwards.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	GIS struct {
		BaseURL     string `yaml:"base_url"`
		APIKey      string `yaml:"api_key"`
		MaxAttempts int    `yaml:"max_attempts"`
	} `yaml:"gis"`
	Sheets struct {
		BaseURL string `yaml:"base_url"`
		SheetID string `yaml:"sheet_id"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"sheets"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Research struct {
		CachePath string `yaml:"cache_path"`
	} `yaml:"research"`
	Telemetry struct {
		OTLPEndpoint string `yaml:"otlp_endpoint"`
		ServiceName  string `yaml:"service_name"`
	} `yaml:"telemetry"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error; env and defaults
// still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PLOTDESK_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("GIS_BASE_URL"); v != "" {
		cfg.GIS.BaseURL = v
	}
	if v := os.Getenv("GIS_API_KEY"); v != "" {
		cfg.GIS.APIKey = v
	}
	if v := os.Getenv("SHEETS_BASE_URL"); v != "" {
		cfg.Sheets.BaseURL = v
	}
	if v := os.Getenv("SHEETS_SHEET_ID"); v != "" {
		cfg.Sheets.SheetID = v
	}
	if v := os.Getenv("SHEETS_API_KEY"); v != "" {
		cfg.Sheets.APIKey = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("RESEARCH_CACHE_PATH"); v != "" {
		cfg.Research.CachePath = v
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8085"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/plots.db"
	}
	if cfg.Research.CachePath == "" {
		cfg.Research.CachePath = "data/research_cache.json"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "plotdesk"
	}

	return cfg, nil
}
