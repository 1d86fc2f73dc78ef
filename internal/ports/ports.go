package ports

import (
	"context"
	"math/big"
	"time"
)

// Small capability interfaces shared across layers (flows/execution/polling).
// All amounts crossing these boundaries are integers scaled by the asset's
// declared decimal precision, never floats.

// Ledger is the per-asset token ledger holding balances and spending
// allowances.
type Ledger interface {
	Decimals(ctx context.Context) (uint8, error)
	Name(ctx context.Context) (string, error)
	Allowance(ctx context.Context, owner, spender string) (*big.Int, error)
	// ApproveSpending raises the spender's allowance by delta. False with a
	// nil error means the ledger rejected the approval.
	ApproveSpending(ctx context.Context, spender string, delta *big.Int) (bool, error)
	Balance(ctx context.Context, owner string) (*big.Int, error)
}

// Stake is one staking position as reported by the vault.
type Stake struct {
	ID          uint64
	Amount      *big.Int
	SpanSeconds int64
	CreatedAt   time.Time
	AccruedFees *big.Int
}

// Vault holds margin collateral and exposes fund/withdraw/leverage/stake
// operations.
type Vault interface {
	UserMarginBalance(ctx context.Context, owner string) (*big.Int, error)
	FundAccount(ctx context.Context, amount *big.Int, subaccount, owner string) (txRef string, err error)
	WithdrawFromAccount(ctx context.Context, amount *big.Int, account string) (txRef string, err error)
	ProvideLeverage(ctx context.Context, amount *big.Int) error
	RemoveLeverage(ctx context.Context, amount *big.Int, subaccount string) error
	StakeVirtualTokens(ctx context.Context, amount *big.Int, spanSeconds int64, subaccount string) (stakeID uint64, err error)
	UnstakeVirtualTokens(ctx context.Context, stakeID uint64) error
	GetUserStakes(ctx context.Context, owner string) ([]Stake, error)
}

// MarketState mirrors the market actor's getStateDetails payload.
type MarketState struct {
	MaxLeverageX10 uint32
	MinCollateral  *big.Int
	Paused         bool
}

// BestOffers is the current top of book in ticks.
type BestOffers struct {
	HighestBuyTick *big.Int
	LowestSellTick *big.Int
}

// Position is the market actor's view of one account's position.
type Position struct {
	AccountIndex uint8
	Long         bool
	Collateral   *big.Int
	LeverageX10  uint32
	EntryTick    *big.Int
	Status       string
	PnL          *big.Int
}

// Market is the order-book service for one trading pair.
type Market interface {
	GetStateDetails(ctx context.Context) (MarketState, error)
	GetBestOffers(ctx context.Context) (BestOffers, error)
	OpenLimitPosition(ctx context.Context, accountIndex uint8, long bool, collateral *big.Int, leverageX10 uint32, maxTick *big.Int) (Position, error)
	// OpenMarketPosition accepts a nil maxTick for no slippage bound.
	OpenMarketPosition(ctx context.Context, accountIndex uint8, long bool, collateral *big.Int, leverageX10 uint32, maxTick *big.Int) (Position, error)
	CloseLimitPosition(ctx context.Context, accountIndex uint8) (amountOut *big.Int, err error)
	// CloseMarketPosition accepts a nil priceLimit for no bound.
	CloseMarketPosition(ctx context.Context, accountIndex uint8, priceLimit *big.Int) (amountOut *big.Int, err error)
	// GetAccountPositionDetails returns nil when no position exists.
	GetAccountPositionDetails(ctx context.Context, owner string, accountIndex uint8) (*Position, error)
}

// Quote is one single-asset reading from the price API.
type Quote struct {
	AssetID   string
	Price     float64
	Change24h float64
	FetchedAt time.Time
}

// PriceSource serves single-asset quotes; polled, never pushed.
type PriceSource interface {
	GetQuote(ctx context.Context, assetID string) (Quote, error)
}

// Signer is the capability identifying who an operation acts for. Passed
// explicitly per client rather than read from any process-wide singleton.
type Signer interface {
	Owner() string
}
