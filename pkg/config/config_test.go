package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ChainID != 1 {
		t.Fatalf("chain id = %d, want 1", cfg.ChainID)
	}
	if cfg.PriceIntervalSeconds != 10 {
		t.Fatalf("price interval = %d, want 10", cfg.PriceIntervalSeconds)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("log level = %q, want info", cfg.Log.Level)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
rpc_url: https://rpc.example.com
chain_id: 137
price_interval_seconds: 5
log:
  level: debug
assets:
  - symbol: USDT
    decimals: 6
    ledger_address: "0xledger"
    vault_address: "0xvault"
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RIVERR_CHAIN_ID", "42161")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "https://rpc.example.com" {
		t.Fatalf("rpc url = %q", cfg.RPCURL)
	}
	// env beats file
	if cfg.ChainID != 42161 {
		t.Fatalf("chain id = %d, want 42161", cfg.ChainID)
	}
	if cfg.PriceIntervalSeconds != 5 {
		t.Fatalf("price interval = %d, want 5", cfg.PriceIntervalSeconds)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level = %q, want debug", cfg.Log.Level)
	}
	if len(cfg.Assets) != 1 || cfg.Assets[0].Symbol != "USDT" {
		t.Fatalf("assets = %+v", cfg.Assets)
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.VaultID != "main" {
		t.Fatalf("vault id = %q, want main", cfg.VaultID)
	}
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("RIVERR_PRICE_INTERVAL", "-1")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for negative interval")
	}
}
