package services

import (
	"context"
	"math/big"
	"time"

	"github.com/riverrfinance/riverr-go/internal/balance"
)

// Balance cache keys used by the dashboard views.
const (
	BalanceMargin = "margin"
	BalanceWallet = "wallet"
	BalanceStaked = "staked"
)

// NewBalancePoller builds the poller behind the asset's balance panel:
// the owner's vault margin, their wallet balance on the asset ledger and
// the total amount staked, fetched as one all-or-nothing batch. active
// gates polling on panel visibility; nil means always on.
func (s *Service) NewBalancePoller(symbol string, interval time.Duration, active func() bool) (*balance.Poller, error) {
	asset, err := s.assetWithVault(symbol)
	if err != nil {
		return nil, err
	}
	owner := s.signer.Owner()

	legs := []balance.Leg{
		{
			Name: BalanceMargin,
			Fetch: func(ctx context.Context) (*big.Int, error) {
				return s.vault.UserMarginBalance(ctx, owner)
			},
		},
		{
			Name: BalanceWallet,
			Fetch: func(ctx context.Context) (*big.Int, error) {
				ledger, err := s.ledgers(asset.LedgerAddress)
				if err != nil {
					return nil, err
				}
				return ledger.Balance(ctx, owner)
			},
		},
	}
	if asset.VirtualTokenAddress != "" {
		legs = append(legs, balance.Leg{
			Name: BalanceStaked,
			Fetch: func(ctx context.Context) (*big.Int, error) {
				stakes, err := s.vault.GetUserStakes(ctx, owner)
				if err != nil {
					return nil, err
				}
				total := big.NewInt(0)
				for _, st := range stakes {
					if st.Amount != nil {
						total.Add(total, st.Amount)
					}
				}
				return total, nil
			},
		})
	}
	return balance.NewPoller(balance.BatchFetch(legs...), interval, active), nil
}
