package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/riverrfinance/riverr-go/internal/agent"
	"github.com/riverrfinance/riverr-go/internal/assets"
	"github.com/riverrfinance/riverr-go/internal/balance"
	"github.com/riverrfinance/riverr-go/internal/ports"
	"github.com/riverrfinance/riverr-go/internal/pricefeed"
	"github.com/riverrfinance/riverr-go/internal/services"
	"github.com/riverrfinance/riverr-go/pkg/config"
	"github.com/riverrfinance/riverr-go/pkg/fixedpoint"
	"github.com/riverrfinance/riverr-go/pkg/logger"
	"github.com/riverrfinance/riverr-go/pkg/secretstore"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)

	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type tickMsg time.Time

type model struct {
	cfg    *config.Config
	engine *pricefeed.Engine
	cancel context.CancelFunc

	// nil when the wallet could not be loaded; the watcher then runs
	// price-only.
	poller *balance.Poller
	asset  assets.Asset

	rate    pricefeed.CrossRate
	hasRate bool
}

func initialModel(cfg *config.Config, symbol string) model {
	ctx, cancel := context.WithCancel(context.Background())
	engine := pricefeed.NewEngine(
		pricefeed.NewClient(cfg.PriceBaseURL),
		cfg.BaseAssetID, cfg.QuoteAssetID,
		cfg.PriceInterval(),
	)
	engine.Start(ctx)

	m := model{cfg: cfg, engine: engine, cancel: cancel}
	if poller, asset, err := wireBalances(cfg, symbol); err != nil {
		logger.Errorf("balances unavailable, running price-only: %v", err)
	} else {
		poller.Start(ctx)
		m.poller = poller
		m.asset = asset
	}
	return m
}

// wireBalances builds the balance poller behind the watcher's lower panel.
// Any failure (no secret store, no wallet, unknown asset) is non-fatal.
func wireBalances(cfg *config.Config, symbol string) (*balance.Poller, assets.Asset, error) {
	encKey, err := secretstore.ParseKey(os.Getenv("RIVERR_SECRET_KEY"))
	if err != nil {
		return nil, assets.Asset{}, err
	}
	store, err := secretstore.Open(secretstore.OpenOptions{
		Path:          cfg.SecretStorePath,
		EncryptionKey: encKey,
		ReadOnly:      true,
	})
	if err != nil {
		return nil, assets.Asset{}, err
	}
	wallet, err := agent.LoadWallet(store, "")
	if err != nil {
		_ = store.Close()
		return nil, assets.Asset{}, err
	}

	catalog := assets.Default
	asset, err := catalog.Get(symbol)
	if err != nil {
		_ = store.Close()
		return nil, assets.Asset{}, err
	}

	ledgers := make(map[string]ports.Ledger)
	svc := services.New(services.Deps{
		Signer:  wallet,
		Catalog: catalog,
		Ledgers: func(addr string) (ports.Ledger, error) {
			if l, ok := ledgers[addr]; ok {
				return l, nil
			}
			l, err := agent.NewLedgerClient(cfg.RPCURL, addr, cfg.ChainID, wallet)
			if err != nil {
				return nil, err
			}
			ledgers[addr] = l
			return l, nil
		},
		Vault:  agent.NewVaultClient(cfg.VaultBaseURL, cfg.VaultID),
		Market: agent.NewMarketClient(cfg.MarketBaseURL, cfg.MarketID),
	}, nil)

	poller, err := svc.NewBalancePoller(symbol, cfg.BalanceInterval(), nil)
	if err != nil {
		_ = store.Close()
		return nil, assets.Asset{}, err
	}
	return poller, asset, nil
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case tickMsg:
		m.rate, m.hasRate = m.engine.Current()
		return m, tickCmd()
	}
	return m, nil
}

func (m model) View() string {
	pair := fmt.Sprintf("%s/%s", m.cfg.BaseAssetID, m.cfg.QuoteAssetID)
	header := headerStyle.Render(" price watcher · " + pair + " ")

	var price string
	if !m.hasRate {
		price = dimStyle.Render("waiting for first quote...")
	} else {
		changeStyle := upStyle
		if m.rate.Change24h < 0 {
			changeStyle = downStyle
		}
		price = fmt.Sprintf("%s\n%s\n%s",
			fmt.Sprintf("price   %.7f", m.rate.Price),
			changeStyle.Render(fmt.Sprintf("24h     %+.2f%%", m.rate.Change24h)),
			dimStyle.Render("as of   "+m.rate.UpdatedAt.Format("15:04:05")),
		)
	}

	out := header + "\n" + borderStyle.Render(price)
	if m.poller != nil {
		balances := fmt.Sprintf("%s balances\nmargin  %s\nwallet  %s\nstaked  %s",
			m.asset.Symbol,
			fixedpoint.Format(m.poller.Get(services.BalanceMargin), m.asset.Decimals),
			fixedpoint.Format(m.poller.Get(services.BalanceWallet), m.asset.Decimals),
			fixedpoint.Format(m.poller.Get(services.BalanceStaked), m.asset.Decimals),
		)
		out += "\n" + borderStyle.Render(balances)
	}
	return out + "\n" + dimStyle.Render("q to quit")
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		symbol     = flag.String("asset", "USDT", "asset symbol for the balance panel")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	// keep the poll loops' warnings out of the TUI frame
	_ = logger.Init(logger.Config{Level: "error", OutputFile: "logs/price-watcher.log", MaxSize: 10, MaxBackups: 2, MaxAge: 7})

	p := tea.NewProgram(initialModel(cfg, *symbol), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "tui:", err)
		os.Exit(1)
	}
}
