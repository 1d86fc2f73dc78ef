package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/riverrfinance/riverr-go/internal/agent"
	"github.com/riverrfinance/riverr-go/internal/assets"
	"github.com/riverrfinance/riverr-go/internal/common"
	"github.com/riverrfinance/riverr-go/internal/history"
	"github.com/riverrfinance/riverr-go/internal/ports"
	"github.com/riverrfinance/riverr-go/internal/pricefeed"
	"github.com/riverrfinance/riverr-go/internal/services"
	"github.com/riverrfinance/riverr-go/pkg/config"
	"github.com/riverrfinance/riverr-go/pkg/fixedpoint"
	"github.com/riverrfinance/riverr-go/pkg/logger"
	"github.com/riverrfinance/riverr-go/pkg/secretstore"
)

// ledgerCache hands out one LedgerClient per token address. Dialing the
// RPC node happens lazily on first use.
type ledgerCache struct {
	rpcURL  string
	chainID int64
	wallet  *agent.Wallet

	mu      sync.Mutex
	clients map[string]*agent.LedgerClient
}

func newLedgerCache(rpcURL string, chainID int64, wallet *agent.Wallet) *ledgerCache {
	return &ledgerCache{
		rpcURL:  rpcURL,
		chainID: chainID,
		wallet:  wallet,
		clients: make(map[string]*agent.LedgerClient),
	}
}

func (c *ledgerCache) Get(tokenAddress string) (ports.Ledger, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.clients[tokenAddress]; ok {
		return client, nil
	}
	client, err := agent.NewLedgerClient(c.rpcURL, tokenAddress, c.chainID, c.wallet)
	if err != nil {
		return nil, err
	}
	c.clients[tokenAddress] = client
	return client, nil
}

// buildCatalog overlays config asset entries on the shipped defaults.
func buildCatalog(overrides []config.AssetConfig) assets.Catalog {
	catalog := assets.Catalog{}
	for symbol, a := range assets.Default {
		catalog[symbol] = a
	}
	for _, o := range overrides {
		catalog[o.Symbol] = assets.Asset{
			Symbol:              o.Symbol,
			Decimals:            o.Decimals,
			LedgerAddress:       o.LedgerAddress,
			VaultAddress:        o.VaultAddress,
			VirtualTokenAddress: o.VirtualTokenAddress,
		}
	}
	return catalog
}

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		symbol     = flag.String("asset", "USDT", "asset symbol to track")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	encKey, err := secretstore.ParseKey(os.Getenv("RIVERR_SECRET_KEY"))
	if err != nil {
		logger.Errorf("secret key: %v", err)
		os.Exit(1)
	}
	store, err := secretstore.Open(secretstore.OpenOptions{
		Path:          cfg.SecretStorePath,
		EncryptionKey: encKey,
		ReadOnly:      true,
	})
	if err != nil {
		logger.Errorf("secret store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	wallet, err := agent.LoadWallet(store, "")
	if err != nil {
		logger.Errorf("wallet: %v", err)
		os.Exit(1)
	}
	logger.Infof("signer ready: %s", wallet.Owner())

	journal, err := history.Open(cfg.HistoryPath)
	if err != nil {
		logger.Errorf("history: %v", err)
		os.Exit(1)
	}
	defer journal.Close()

	catalog := buildCatalog(cfg.Assets)
	ledgers := newLedgerCache(cfg.RPCURL, cfg.ChainID, wallet)

	svc := services.New(services.Deps{
		Signer:  wallet,
		Catalog: catalog,
		Ledgers: ledgers.Get,
		Vault:   agent.NewVaultClient(cfg.VaultBaseURL, cfg.VaultID),
		Market:  agent.NewMarketClient(cfg.MarketBaseURL, cfg.MarketID),
	}, journal)

	feed := pricefeed.NewEngine(
		pricefeed.NewClient(cfg.PriceBaseURL),
		cfg.BaseAssetID, cfg.QuoteAssetID,
		cfg.PriceInterval(),
	)

	poller, err := svc.NewBalancePoller(*symbol, cfg.BalanceInterval(), nil)
	if err != nil {
		logger.Errorf("balance poller: %v", err)
		os.Exit(1)
	}

	asset, err := catalog.Get(*symbol)
	if err != nil {
		logger.Errorf("asset: %v", err)
		os.Exit(1)
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	feedDone := feed.Start(rootCtx)
	poller.Start(rootCtx)

	snapshotDone := common.Repeat(rootCtx, 30*time.Second, func(ctx context.Context) {
		if rate, ok := feed.Current(); ok {
			logger.Infof("%s/%s %.7f (%+.2f%% 24h)",
				cfg.BaseAssetID, cfg.QuoteAssetID, rate.Price, rate.Change24h)
		}
		logger.Infof("%s margin=%s wallet=%s staked=%s",
			asset.Symbol,
			fixedpoint.Format(poller.Get(services.BalanceMargin), asset.Decimals),
			fixedpoint.Format(poller.Get(services.BalanceWallet), asset.Decimals),
			fixedpoint.Format(poller.Get(services.BalanceStaked), asset.Decimals),
		)
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.Infof("received %v, shutting down", sig)

	rootCancel()
	poller.Stop()
	<-feedDone
	<-snapshotDone
	logger.Infof("dashboard stopped")
}
