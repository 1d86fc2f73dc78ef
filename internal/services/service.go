// Package services composes the validator, the gated executor and the
// remote stubs into the dashboard's user-facing flows: deposit, withdraw,
// leverage, staking and position orders.
package services

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/riverrfinance/riverr-go/internal/assets"
	"github.com/riverrfinance/riverr-go/internal/common"
	"github.com/riverrfinance/riverr-go/internal/execution"
	"github.com/riverrfinance/riverr-go/internal/ports"
	"github.com/riverrfinance/riverr-go/internal/txflow"
	"github.com/riverrfinance/riverr-go/pkg/fixedpoint"
)

// balanceReadInterval throttles the live balance read behind keystroke
// validation. Within the window the previous reading is reused.
const balanceReadInterval = time.Second

// LedgerProvider resolves the ledger client for a token address. Assets
// and their virtual staking tokens live on different ledgers.
type LedgerProvider func(tokenAddress string) (ports.Ledger, error)

type Deps struct {
	Signer  ports.Signer
	Catalog assets.Catalog
	Ledgers LedgerProvider
	Vault   ports.Vault
	Market  ports.Market
}

type Service struct {
	signer   ports.Signer
	catalog  assets.Catalog
	ledgers  LedgerProvider
	vault    ports.Vault
	market   ports.Market
	executor *execution.Executor

	balMu    sync.Mutex
	balCache map[string]*cachedBalance
}

// cachedBalance is the last live ledger reading for one symbol, reused
// while the debounce gate is closed.
type cachedBalance struct {
	gate  *common.Debouncer
	value *big.Int
}

func New(deps Deps, recorder execution.Recorder) *Service {
	return &Service{
		signer:   deps.Signer,
		catalog:  deps.Catalog,
		ledgers:  deps.Ledgers,
		vault:    deps.Vault,
		market:   deps.Market,
		executor: execution.NewExecutor(recorder),
		balCache: make(map[string]*cachedBalance),
	}
}

// ValidateAmount parses raw input and checks it against the owner's
// ledger balance. Run on every keystroke by the Input views; the live
// balance read is debounced so typing fast does not hammer the node.
func (s *Service) ValidateAmount(ctx context.Context, symbol, raw string, minimum *big.Int) (*big.Int, fixedpoint.Outcome, error) {
	asset, err := s.catalog.Get(symbol)
	if err != nil {
		return nil, fixedpoint.Invalid, err
	}
	scaled, err := fixedpoint.Parse(raw, asset.Decimals)
	if err != nil {
		return nil, fixedpoint.Invalid, err
	}
	available, err := s.ownerBalance(ctx, asset)
	if err != nil {
		return nil, fixedpoint.Invalid, err
	}
	return scaled, fixedpoint.Validate(scaled, available, minimum), nil
}

// ownerBalance reads the owner's ledger balance, reusing the previous
// reading within the debounce window.
func (s *Service) ownerBalance(ctx context.Context, asset assets.Asset) (*big.Int, error) {
	s.balMu.Lock()
	entry, ok := s.balCache[asset.Symbol]
	if !ok {
		entry = &cachedBalance{gate: common.NewDebouncer(balanceReadInterval)}
		s.balCache[asset.Symbol] = entry
	}
	if entry.value != nil && !entry.gate.ReadyNow() {
		v := new(big.Int).Set(entry.value)
		s.balMu.Unlock()
		return v, nil
	}
	s.balMu.Unlock()

	ledger, err := s.ledgers(asset.LedgerAddress)
	if err != nil {
		return nil, err
	}
	available, err := ledger.Balance(ctx, s.signer.Owner())
	if err != nil {
		return nil, err
	}

	s.balMu.Lock()
	entry.value = new(big.Int).Set(available)
	entry.gate.MarkNow()
	s.balMu.Unlock()
	return available, nil
}

// gated wraps op in a RunFunc executing the allowance-gated sequence for
// the asset. ledgerAddr selects which token the vault will pull (the
// asset's own ledger, or its virtual token ledger for staking).
func (s *Service) gated(action string, asset assets.Asset, ledgerAddr string, amount *big.Int, op execution.Operation) txflow.RunFunc {
	return func(ctx context.Context, onState func(execution.State)) execution.Run {
		ledger, err := s.ledgers(ledgerAddr)
		if err != nil {
			return execution.Run{
				Action: action,
				State:  execution.Failed,
				Err:    &execution.ExecutionError{Message: "", Err: err},
			}
		}
		return s.executor.Run(ctx, execution.Request{
			Action:  action,
			Owner:   s.signer.Owner(),
			Asset:   asset.Symbol,
			Spender: asset.VaultAddress,
			Amount:  amount,
			Ledger:  ledger,
			Execute: op,
			OnState: onState,
		})
	}
}

func (s *Service) assetWithVault(symbol string) (assets.Asset, error) {
	asset, err := s.catalog.Get(symbol)
	if err != nil {
		return assets.Asset{}, err
	}
	if !asset.HasVault() {
		return assets.Asset{}, errors.Errorf("services: asset %s has no vault", symbol)
	}
	return asset, nil
}
