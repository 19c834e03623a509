package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
environment: dev
server:
  port: 8080
binance:
  websocket_url: wss://stream.binance.com:9443/ws
  symbols: [btcusdt, ethusdt]
resample:
  timeframes: [1s, 1m, 5m]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != "dev" {
		t.Fatalf("environment = %q, want dev", cfg.Environment)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("port = %d, want 8080", cfg.Server.Port)
	}
	if len(cfg.Binance.Symbols) != 2 || cfg.Binance.Symbols[0] != "btcusdt" {
		t.Fatalf("symbols = %v", cfg.Binance.Symbols)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejectsBadTimeframe(t *testing.T) {
	body := `
environment: dev
binance:
  websocket_url: wss://stream.binance.com:9443/ws
  symbols: [btcusdt]
resample:
  timeframes: [2h]
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for unsupported timeframe")
	}
}

func TestValidateRejectsEmptySymbols(t *testing.T) {
	body := `
environment: dev
binance:
  websocket_url: wss://stream.binance.com:9443/ws
  symbols: []
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for empty symbols")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOLS", "solusdt")
	t.Setenv("CLICKHOUSE_HOST", "ch.internal")

	cfg, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if len(cfg.Binance.Symbols) != 1 || cfg.Binance.Symbols[0] != "solusdt" {
		t.Fatalf("symbols = %v, want [solusdt]", cfg.Binance.Symbols)
	}
	if cfg.ClickHouse.Host != "ch.internal" {
		t.Fatalf("clickhouse host = %q", cfg.ClickHouse.Host)
	}
}
