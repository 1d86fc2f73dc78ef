package services

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/riverrfinance/riverr-go/internal/ports"
	"github.com/riverrfinance/riverr-go/internal/txflow"
	"github.com/riverrfinance/riverr-go/pkg/fixedpoint"
	"github.com/riverrfinance/riverr-go/pkg/tick"
)

// OrderParams describes an open-position request before validation.
// LimitPrice is a decimal string; required for limit orders, optional
// slippage bound for market orders ("" means unbounded).
type OrderParams struct {
	Symbol       string
	AccountIndex uint8
	Long         bool
	Collateral   *big.Int
	LeverageX10  uint32
	LimitPrice   string
}

// checkOrder validates params against the market's live state. Collateral
// below the market minimum or leverage above its cap are rejected before
// any allowance work happens.
func (s *Service) checkOrder(ctx context.Context, p OrderParams) error {
	state, err := s.market.GetStateDetails(ctx)
	if err != nil {
		return errors.Wrap(err, "services: market state")
	}
	if state.Paused {
		return errors.New("market is paused")
	}
	if p.Collateral == nil || p.Collateral.Sign() <= 0 {
		return errors.New("collateral must be positive")
	}
	if state.MinCollateral != nil && p.Collateral.Cmp(state.MinCollateral) < 0 {
		return errors.Errorf("collateral below market minimum %s", state.MinCollateral.String())
	}
	if p.LeverageX10 == 0 {
		return errors.New("leverage must be at least 0.1x")
	}
	if p.LeverageX10 > state.MaxLeverageX10 {
		return errors.Errorf("leverage %.1fx exceeds market maximum %.1fx",
			float64(p.LeverageX10)/10, float64(state.MaxLeverageX10)/10)
	}
	return nil
}

// OpenLimitPosition opens a resting position at the given limit price.
// Collateral is pulled from the asset ledger, so the run is gated on it.
func (s *Service) OpenLimitPosition(ctx context.Context, p OrderParams) (txflow.RunFunc, error) {
	asset, err := s.assetWithVault(p.Symbol)
	if err != nil {
		return nil, err
	}
	if err := s.checkOrder(ctx, p); err != nil {
		return nil, err
	}
	if p.LimitPrice == "" {
		return nil, errors.New("limit orders require a limit price")
	}
	maxTick, err := tick.ToTick(p.LimitPrice)
	if err != nil {
		return nil, err
	}
	op := func(ctx context.Context, amt *big.Int) (string, error) {
		pos, err := s.market.OpenLimitPosition(ctx, p.AccountIndex, p.Long, amt, p.LeverageX10, maxTick)
		if err != nil {
			return "", err
		}
		return tick.ToPrice(pos.EntryTick), nil
	}
	return s.gated("open limit", asset, asset.LedgerAddress, p.Collateral, op), nil
}

// OpenMarketPosition opens at the best available price, optionally
// bounded by p.LimitPrice as a slippage cap.
func (s *Service) OpenMarketPosition(ctx context.Context, p OrderParams) (txflow.RunFunc, error) {
	asset, err := s.assetWithVault(p.Symbol)
	if err != nil {
		return nil, err
	}
	if err := s.checkOrder(ctx, p); err != nil {
		return nil, err
	}
	var maxTick *big.Int
	if p.LimitPrice != "" {
		if maxTick, err = tick.ToTick(p.LimitPrice); err != nil {
			return nil, err
		}
	}
	op := func(ctx context.Context, amt *big.Int) (string, error) {
		pos, err := s.market.OpenMarketPosition(ctx, p.AccountIndex, p.Long, amt, p.LeverageX10, maxTick)
		if err != nil {
			return "", err
		}
		return tick.ToPrice(pos.EntryTick), nil
	}
	return s.gated("open market", asset, asset.LedgerAddress, p.Collateral, op), nil
}

// CloseLimitPosition cancels a resting limit position. Nothing is pulled
// from the owner, so the gate passes through.
func (s *Service) CloseLimitPosition(symbol string, accountIndex uint8) (txflow.RunFunc, error) {
	asset, err := s.assetWithVault(symbol)
	if err != nil {
		return nil, err
	}
	op := func(ctx context.Context, _ *big.Int) (string, error) {
		out, err := s.market.CloseLimitPosition(ctx, accountIndex)
		if err != nil {
			return "", err
		}
		return fixedpoint.Format(out, asset.Decimals), nil
	}
	return s.gated("close limit", asset, asset.LedgerAddress, big.NewInt(0), op), nil
}

// CloseMarketPosition closes an open position at market, optionally
// bounded by priceLimit ("" means unbounded).
func (s *Service) CloseMarketPosition(symbol string, accountIndex uint8, priceLimit string) (txflow.RunFunc, error) {
	asset, err := s.assetWithVault(symbol)
	if err != nil {
		return nil, err
	}
	var limitTick *big.Int
	if priceLimit != "" {
		if limitTick, err = tick.ToTick(priceLimit); err != nil {
			return nil, err
		}
	}
	op := func(ctx context.Context, _ *big.Int) (string, error) {
		out, err := s.market.CloseMarketPosition(ctx, accountIndex, limitTick)
		if err != nil {
			return "", err
		}
		return fixedpoint.Format(out, asset.Decimals), nil
	}
	return s.gated("close market", asset, asset.LedgerAddress, big.NewInt(0), op), nil
}

// BestOfferPrices returns the current top of book as decimal price
// strings. An empty side comes back as "".
func (s *Service) BestOfferPrices(ctx context.Context) (highestBuy, lowestSell string, err error) {
	offers, err := s.market.GetBestOffers(ctx)
	if err != nil {
		return "", "", err
	}
	if offers.HighestBuyTick != nil {
		highestBuy = tick.ToPrice(offers.HighestBuyTick)
	}
	if offers.LowestSellTick != nil {
		lowestSell = tick.ToPrice(offers.LowestSellTick)
	}
	return highestBuy, lowestSell, nil
}

// Position returns the owner's position at accountIndex, nil when none.
func (s *Service) Position(ctx context.Context, accountIndex uint8) (*ports.Position, error) {
	return s.market.GetAccountPositionDetails(ctx, s.signer.Owner(), accountIndex)
}
