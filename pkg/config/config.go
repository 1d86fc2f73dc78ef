// Package config loads dashboard settings from an optional YAML file with
// environment variable overrides. Env wins over file, file wins over
// defaults. Secrets (the store encryption key) come from env only.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type AssetConfig struct {
	Symbol              string `yaml:"symbol"`
	Decimals            uint8  `yaml:"decimals"`
	LedgerAddress       string `yaml:"ledger_address"`
	VaultAddress        string `yaml:"vault_address"`
	VirtualTokenAddress string `yaml:"virtual_token_address"`
}

type Config struct {
	RPCURL  string `yaml:"rpc_url"`
	ChainID int64  `yaml:"chain_id"`

	VaultBaseURL  string `yaml:"vault_base_url"`
	VaultID       string `yaml:"vault_id"`
	MarketBaseURL string `yaml:"market_base_url"`
	MarketID      string `yaml:"market_id"`
	PriceBaseURL  string `yaml:"price_base_url"`

	// Cross-rate legs: the derived pair is base/quote.
	BaseAssetID  string `yaml:"base_asset_id"`
	QuoteAssetID string `yaml:"quote_asset_id"`

	PriceIntervalSeconds   int `yaml:"price_interval_seconds"`
	BalanceIntervalSeconds int `yaml:"balance_interval_seconds"`

	SecretStorePath string `yaml:"secret_store_path"`
	HistoryPath     string `yaml:"history_path"`

	Log    LogConfig     `yaml:"log"`
	Assets []AssetConfig `yaml:"assets"`
}

func defaults() *Config {
	return &Config{
		RPCURL:                 "http://127.0.0.1:8545",
		ChainID:                1,
		VaultBaseURL:           "http://127.0.0.1:8080",
		VaultID:                "main",
		MarketBaseURL:          "http://127.0.0.1:8081",
		MarketID:               "riv-usdt",
		PriceBaseURL:           "http://127.0.0.1:8082",
		BaseAssetID:            "riv",
		QuoteAssetID:           "usdt",
		PriceIntervalSeconds:   10,
		BalanceIntervalSeconds: 15,
		SecretStorePath:        "data/secrets",
		HistoryPath:            "data/history.db",
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// Load reads path (skipped when empty or missing) and applies env
// overrides on top.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "config: read %s", path)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "config: parse %s", path)
			}
		}
	}

	cfg.RPCURL = getEnv("RIVERR_RPC_URL", cfg.RPCURL)
	cfg.ChainID = parseInt64Env("RIVERR_CHAIN_ID", cfg.ChainID)
	cfg.VaultBaseURL = getEnv("RIVERR_VAULT_URL", cfg.VaultBaseURL)
	cfg.VaultID = getEnv("RIVERR_VAULT_ID", cfg.VaultID)
	cfg.MarketBaseURL = getEnv("RIVERR_MARKET_URL", cfg.MarketBaseURL)
	cfg.MarketID = getEnv("RIVERR_MARKET_ID", cfg.MarketID)
	cfg.PriceBaseURL = getEnv("RIVERR_PRICE_URL", cfg.PriceBaseURL)
	cfg.BaseAssetID = getEnv("RIVERR_BASE_ASSET_ID", cfg.BaseAssetID)
	cfg.QuoteAssetID = getEnv("RIVERR_QUOTE_ASSET_ID", cfg.QuoteAssetID)
	cfg.PriceIntervalSeconds = parseIntEnv("RIVERR_PRICE_INTERVAL", cfg.PriceIntervalSeconds)
	cfg.BalanceIntervalSeconds = parseIntEnv("RIVERR_BALANCE_INTERVAL", cfg.BalanceIntervalSeconds)
	cfg.SecretStorePath = getEnv("RIVERR_SECRET_STORE_PATH", cfg.SecretStorePath)
	cfg.HistoryPath = getEnv("RIVERR_HISTORY_PATH", cfg.HistoryPath)
	cfg.Log.Level = getEnv("RIVERR_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("RIVERR_LOG_FILE", cfg.Log.File)

	if cfg.PriceIntervalSeconds <= 0 {
		return nil, errors.New("config: price interval must be positive")
	}
	if cfg.BalanceIntervalSeconds <= 0 {
		return nil, errors.New("config: balance interval must be positive")
	}
	return cfg, nil
}

func (c *Config) PriceInterval() time.Duration {
	return time.Duration(c.PriceIntervalSeconds) * time.Second
}

func (c *Config) BalanceInterval() time.Duration {
	return time.Duration(c.BalanceIntervalSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseInt64Env(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
