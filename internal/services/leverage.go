package services

import (
	"context"
	"math/big"

	"github.com/riverrfinance/riverr-go/internal/txflow"
)

// ProvideLeverage supplies liquidity to the vault's leverage pool.
func (s *Service) ProvideLeverage(symbol string, amount *big.Int) (txflow.RunFunc, error) {
	asset, err := s.assetWithVault(symbol)
	if err != nil {
		return nil, err
	}
	op := func(ctx context.Context, amt *big.Int) (string, error) {
		return "", s.vault.ProvideLeverage(ctx, amt)
	}
	return s.gated("provide leverage", asset, asset.LedgerAddress, amount, op), nil
}

// RemoveLeverage withdraws liquidity from the leverage pool. The vault
// pulls nothing from the owner here, so the allowance check passes
// through without approving.
func (s *Service) RemoveLeverage(symbol string, amount *big.Int, subaccount string) (txflow.RunFunc, error) {
	asset, err := s.assetWithVault(symbol)
	if err != nil {
		return nil, err
	}
	op := func(ctx context.Context, _ *big.Int) (string, error) {
		return "", s.vault.RemoveLeverage(ctx, amount, subaccount)
	}
	return s.gated("remove leverage", asset, asset.LedgerAddress, big.NewInt(0), op), nil
}
