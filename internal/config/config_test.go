package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "finthrust.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATA_DIR", "SQLITE_PATH",
		"ALPACA_API_KEY", "ALPACA_API_SECRET", "ALPACA_DATA_URL",
		"APCA_API_KEY_ID", "APCA_API_SECRET_KEY",
		"ALPHA_VANTAGE_API_KEY", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	clearEnvOverrides(t)
	path := writeConfig(t, `
storage:
  data_dir: "/tmp/finthrust/data"
  sqlite_path: "/tmp/finthrust/finthrust.db"
  params_path: "/tmp/finthrust/params.json"
server:
  host: "0.0.0.0"
  port: 8080
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  data_url: "https://data.alpaca.markets"
alpha_vantage:
  api_key: "av-key"
  rate_limit_per_min: 5
logging:
  level: "info"
  format: "json"
backtest:
  initial_capital: 100000
  unit_size: 1
  market: "us"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- Storage --
	if cfg.Storage.DataDir != "/tmp/finthrust/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/finthrust/data")
	}
	if cfg.Storage.SQLitePath != "/tmp/finthrust/finthrust.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q", cfg.Storage.SQLitePath, "/tmp/finthrust/finthrust.db")
	}

	// -- Server --
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}

	// -- Alpaca --
	if cfg.Alpaca.APIKey != "test-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q", cfg.Alpaca.APIKey, "test-key")
	}
	if cfg.Alpaca.DataURL != "https://data.alpaca.markets" {
		t.Errorf("Alpaca.DataURL = %q, want %q", cfg.Alpaca.DataURL, "https://data.alpaca.markets")
	}

	// -- Alpha Vantage --
	if cfg.AlphaVantage.APIKey != "av-key" {
		t.Errorf("AlphaVantage.APIKey = %q, want %q", cfg.AlphaVantage.APIKey, "av-key")
	}
	if cfg.AlphaVantage.RateLimitPerMin != 5 {
		t.Errorf("AlphaVantage.RateLimitPerMin = %d, want %d", cfg.AlphaVantage.RateLimitPerMin, 5)
	}

	// -- Logging --
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}

	// -- Backtest --
	if cfg.Backtest.InitialCapital != 100000 {
		t.Errorf("Backtest.InitialCapital = %v, want %v", cfg.Backtest.InitialCapital, 100000.0)
	}
	if cfg.Backtest.Market != "us" {
		t.Errorf("Backtest.Market = %q, want %q", cfg.Backtest.Market, "us")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnvOverrides(t)
	path := writeConfig(t, `
storage:
  data_dir: "/from/yaml"
alpaca:
  api_key: "yaml-key"
  api_secret: "yaml-secret"
`)

	t.Setenv("DATA_DIR", "/from/env")
	t.Setenv("ALPACA_API_KEY", "env-key")
	t.Setenv("APCA_API_KEY_ID", "apca-key")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Storage.DataDir != "/from/env" {
		t.Errorf("Storage.DataDir = %q, want env override", cfg.Storage.DataDir)
	}
	// Canonical APCA vars win over both YAML and ALPACA_* overrides.
	if cfg.Alpaca.APIKey != "apca-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q", cfg.Alpaca.APIKey, "apca-key")
	}
	if cfg.Alpaca.APISecret != "yaml-secret" {
		t.Errorf("Alpaca.APISecret = %q, want yaml value", cfg.Alpaca.APISecret)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnvOverrides(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() with missing file returned error: %v", err)
	}
	want := Default()
	if cfg.Storage.SQLitePath != want.Storage.SQLitePath {
		t.Errorf("Storage.SQLitePath = %q, want default %q", cfg.Storage.SQLitePath, want.Storage.SQLitePath)
	}
	if cfg.Server.Port != want.Server.Port {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, want.Server.Port)
	}
	if cfg.AlphaVantage.RateLimitPerMin != want.AlphaVantage.RateLimitPerMin {
		t.Errorf("AlphaVantage.RateLimitPerMin = %d, want default %d",
			cfg.AlphaVantage.RateLimitPerMin, want.AlphaVantage.RateLimitPerMin)
	}
	if cfg.Backtest.InitialCapital != want.Backtest.InitialCapital {
		t.Errorf("Backtest.InitialCapital = %v, want default %v",
			cfg.Backtest.InitialCapital, want.Backtest.InitialCapital)
	}
}

func TestLoadMissingFileAppliesEnvOverrides(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("SQLITE_PATH", "/from/env/finthrust.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() with missing file returned error: %v", err)
	}
	if cfg.Storage.SQLitePath != "/from/env/finthrust.db" {
		t.Errorf("Storage.SQLitePath = %q, want env override", cfg.Storage.SQLitePath)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnvOverrides(t)
	// Keys absent from the document keep their default values. In
	// particular the quote rate limit must stay positive when the
	// alpha_vantage section is omitted.
	path := writeConfig(t, `
server:
  port: 9090
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.AlphaVantage.RateLimitPerMin != Default().AlphaVantage.RateLimitPerMin {
		t.Errorf("AlphaVantage.RateLimitPerMin = %d, want default %d",
			cfg.AlphaVantage.RateLimitPerMin, Default().AlphaVantage.RateLimitPerMin)
	}
	if cfg.Storage.ParamsPath != Default().Storage.ParamsPath {
		t.Errorf("Storage.ParamsPath = %q, want default %q",
			cfg.Storage.ParamsPath, Default().Storage.ParamsPath)
	}
}
