package services

import (
	"context"
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/riverrfinance/riverr-go/internal/ports"
	"github.com/riverrfinance/riverr-go/internal/txflow"
)

// Stake locks virtual tokens with the vault for span seconds. The vault
// pulls from the asset's virtual token ledger, so the allowance gate runs
// against that ledger rather than the asset's own.
func (s *Service) Stake(symbol string, amount *big.Int, spanSeconds int64, subaccount string) (txflow.RunFunc, error) {
	asset, err := s.assetWithVault(symbol)
	if err != nil {
		return nil, err
	}
	if asset.VirtualTokenAddress == "" {
		return nil, errors.Errorf("services: asset %s has no virtual token", symbol)
	}
	op := func(ctx context.Context, amt *big.Int) (string, error) {
		id, err := s.vault.StakeVirtualTokens(ctx, amt, spanSeconds, subaccount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("stake-%d", id), nil
	}
	return s.gated("stake", asset, asset.VirtualTokenAddress, amount, op), nil
}

// Unstake releases a stake by id. Nothing is pulled from the owner, so
// the gate passes straight through to execution.
func (s *Service) Unstake(symbol string, stakeID uint64) (txflow.RunFunc, error) {
	asset, err := s.assetWithVault(symbol)
	if err != nil {
		return nil, err
	}
	op := func(ctx context.Context, _ *big.Int) (string, error) {
		return "", s.vault.UnstakeVirtualTokens(ctx, stakeID)
	}
	return s.gated("unstake", asset, asset.LedgerAddress, big.NewInt(0), op), nil
}

// ListStakes returns the owner's staking positions with accrued fees.
func (s *Service) ListStakes(ctx context.Context) ([]ports.Stake, error) {
	return s.vault.GetUserStakes(ctx, s.signer.Owner())
}
