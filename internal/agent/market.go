package agent

import (
	"context"
	"fmt"
	"math/big"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/riverrfinance/riverr-go/internal/ports"
)

// MarketClient implements ports.Market for one trading pair.
type MarketClient struct {
	http     *resty.Client
	marketID string
}

func NewMarketClient(baseURL, marketID string) *MarketClient {
	return &MarketClient{http: newRestyClient(baseURL), marketID: marketID}
}

type positionPayload struct {
	AccountIndex uint8  `json:"account_index"`
	Long         bool   `json:"long"`
	Collateral   string `json:"collateral"`
	LeverageX10  uint32 `json:"leverage_x10"`
	EntryTick    string `json:"entry_tick"`
	Status       string `json:"status"`
	PnL          string `json:"pnl"`
	Err          string `json:"err"`
}

func (p *positionPayload) toPosition() (ports.Position, error) {
	if p.Err != "" {
		return ports.Position{}, errors.New(p.Err)
	}
	collateral, err := parseScaled(p.Collateral)
	if err != nil {
		return ports.Position{}, err
	}
	entry, err := parseScaled(p.EntryTick)
	if err != nil {
		return ports.Position{}, err
	}
	pnl, err := parseScaled(p.PnL)
	if err != nil {
		return ports.Position{}, err
	}
	return ports.Position{
		AccountIndex: p.AccountIndex,
		Long:         p.Long,
		Collateral:   collateral,
		LeverageX10:  p.LeverageX10,
		EntryTick:    entry,
		Status:       p.Status,
		PnL:          pnl,
	}, nil
}

func (m *MarketClient) GetStateDetails(ctx context.Context) (ports.MarketState, error) {
	var out struct {
		MaxLeverageX10 uint32 `json:"max_leverage_x10"`
		MinCollateral  string `json:"min_collateral"`
		Paused         bool   `json:"paused"`
	}
	resp, err := m.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/markets/%s/state", m.marketID))
	if err != nil {
		return ports.MarketState{}, errors.Wrap(err, "market: state")
	}
	if resp.IsError() {
		return ports.MarketState{}, errors.Errorf("market: state: http %d", resp.StatusCode())
	}
	minCollateral, err := parseScaled(out.MinCollateral)
	if err != nil {
		return ports.MarketState{}, err
	}
	return ports.MarketState{
		MaxLeverageX10: out.MaxLeverageX10,
		MinCollateral:  minCollateral,
		Paused:         out.Paused,
	}, nil
}

func (m *MarketClient) GetBestOffers(ctx context.Context) (ports.BestOffers, error) {
	var out struct {
		HighestBuyTick string `json:"highest_buy_tick"`
		LowestSellTick string `json:"lowest_sell_tick"`
	}
	resp, err := m.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/markets/%s/best-offers", m.marketID))
	if err != nil {
		return ports.BestOffers{}, errors.Wrap(err, "market: best offers")
	}
	if resp.IsError() {
		return ports.BestOffers{}, errors.Errorf("market: best offers: http %d", resp.StatusCode())
	}
	buy, err := parseScaled(out.HighestBuyTick)
	if err != nil {
		return ports.BestOffers{}, err
	}
	sell, err := parseScaled(out.LowestSellTick)
	if err != nil {
		return ports.BestOffers{}, err
	}
	return ports.BestOffers{HighestBuyTick: buy, LowestSellTick: sell}, nil
}

func (m *MarketClient) openPosition(ctx context.Context, kind string, accountIndex uint8, long bool, collateral *big.Int, leverageX10 uint32, maxTick *big.Int) (ports.Position, error) {
	body := map[string]any{
		"account_index": accountIndex,
		"long":          long,
		"collateral":    collateral.String(),
		"leverage_x10":  leverageX10,
	}
	if maxTick != nil {
		body["max_tick"] = maxTick.String()
	}
	var out positionPayload
	resp, err := m.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post(fmt.Sprintf("/markets/%s/positions/%s", m.marketID, kind))
	if err != nil {
		return ports.Position{}, errors.Wrapf(err, "market: open %s", kind)
	}
	if resp.IsError() {
		return ports.Position{}, errors.Errorf("market: open %s: http %d: %s", kind, resp.StatusCode(), resp.String())
	}
	return out.toPosition()
}

func (m *MarketClient) OpenLimitPosition(ctx context.Context, accountIndex uint8, long bool, collateral *big.Int, leverageX10 uint32, maxTick *big.Int) (ports.Position, error) {
	if maxTick == nil {
		return ports.Position{}, errors.New("market: limit position requires a limit tick")
	}
	return m.openPosition(ctx, "limit", accountIndex, long, collateral, leverageX10, maxTick)
}

func (m *MarketClient) OpenMarketPosition(ctx context.Context, accountIndex uint8, long bool, collateral *big.Int, leverageX10 uint32, maxTick *big.Int) (ports.Position, error) {
	return m.openPosition(ctx, "market", accountIndex, long, collateral, leverageX10, maxTick)
}

func (m *MarketClient) closePosition(ctx context.Context, kind string, accountIndex uint8, priceLimit *big.Int) (*big.Int, error) {
	body := map[string]any{"account_index": accountIndex}
	if priceLimit != nil {
		body["price_limit"] = priceLimit.String()
	}
	var out struct {
		AmountOut string `json:"amount_out"`
		Err       string `json:"err"`
	}
	resp, err := m.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post(fmt.Sprintf("/markets/%s/positions/%s/close", m.marketID, kind))
	if err != nil {
		return nil, errors.Wrapf(err, "market: close %s", kind)
	}
	if resp.IsError() {
		return nil, errors.Errorf("market: close %s: http %d", kind, resp.StatusCode())
	}
	if out.Err != "" {
		return nil, errors.New(out.Err)
	}
	return parseScaled(out.AmountOut)
}

func (m *MarketClient) CloseLimitPosition(ctx context.Context, accountIndex uint8) (*big.Int, error) {
	return m.closePosition(ctx, "limit", accountIndex, nil)
}

func (m *MarketClient) CloseMarketPosition(ctx context.Context, accountIndex uint8, priceLimit *big.Int) (*big.Int, error) {
	return m.closePosition(ctx, "market", accountIndex, priceLimit)
}

func (m *MarketClient) GetAccountPositionDetails(ctx context.Context, owner string, accountIndex uint8) (*ports.Position, error) {
	var out positionPayload
	resp, err := m.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/markets/%s/positions/%s/%d", m.marketID, owner, accountIndex))
	if err != nil {
		return nil, errors.Wrap(err, "market: position details")
	}
	if resp.StatusCode() == 404 {
		return nil, nil
	}
	if resp.IsError() {
		return nil, errors.Errorf("market: position details: http %d", resp.StatusCode())
	}
	pos, err := out.toPosition()
	if err != nil {
		return nil, err
	}
	return &pos, nil
}
