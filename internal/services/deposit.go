package services

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/riverrfinance/riverr-go/internal/txflow"
)

// Deposit funds the owner's margin account with a validated scaled
// amount, approving the allowance deficit first when needed.
func (s *Service) Deposit(symbol string, amount *big.Int, subaccount string) (txflow.RunFunc, error) {
	asset, err := s.assetWithVault(symbol)
	if err != nil {
		return nil, err
	}
	owner := s.signer.Owner()
	op := func(ctx context.Context, amt *big.Int) (string, error) {
		txRef, err := s.vault.FundAccount(ctx, amt, subaccount, owner)
		if err != nil {
			return "", err
		}
		if txRef == "" {
			return "", errors.New("vault returned no transaction reference")
		}
		return txRef, nil
	}
	return s.gated("deposit", asset, asset.LedgerAddress, amount, op), nil
}

// Withdraw moves margin back to the owner's account.
func (s *Service) Withdraw(symbol string, amount *big.Int, account string) (txflow.RunFunc, error) {
	asset, err := s.assetWithVault(symbol)
	if err != nil {
		return nil, err
	}
	if account == "" {
		account = s.signer.Owner()
	}
	op := func(ctx context.Context, amt *big.Int) (string, error) {
		txRef, err := s.vault.WithdrawFromAccount(ctx, amt, account)
		if err != nil {
			return "", err
		}
		if txRef == "" {
			return "", errors.New("vault returned no transaction reference")
		}
		return txRef, nil
	}
	return s.gated("withdraw", asset, asset.LedgerAddress, amount, op), nil
}
