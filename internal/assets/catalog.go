package assets

import "github.com/pkg/errors"

// Asset describes one entry of the static catalog. Entries are immutable;
// nothing mutates an Asset after startup.
type Asset struct {
	Symbol   string
	Decimals uint8
	// LedgerAddress is the token contract holding balances and allowances.
	LedgerAddress string
	// VaultAddress is the margin vault approved to spend the token.
	// Empty for display-only assets.
	VaultAddress string
	// VirtualTokenAddress is the ledger of the vault's staking receipt
	// token, when the asset supports staking.
	VirtualTokenAddress string
}

// HasVault reports whether gated operations (fund/withdraw/leverage/stake)
// exist for the asset.
func (a Asset) HasVault() bool { return a.VaultAddress != "" }

// Catalog is a fixed symbol -> Asset table.
type Catalog map[string]Asset

// Get looks up an asset by symbol.
func (c Catalog) Get(symbol string) (Asset, error) {
	a, ok := c[symbol]
	if !ok {
		return Asset{}, errors.Errorf("assets: unknown symbol %q", symbol)
	}
	return a, nil
}

// Default is the catalog shipped with the dashboard. Addresses come from
// deployment config in production; these are the public mainnet ones.
var Default = Catalog{
	"USDT": {
		Symbol:        "USDT",
		Decimals:      6,
		LedgerAddress: "0xdAC17F958D2ee523a2206206994597C13D831ec7",
		VaultAddress:  "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	},
	"RIV": {
		Symbol:              "RIV",
		Decimals:            8,
		LedgerAddress:       "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984",
		VaultAddress:        "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		VirtualTokenAddress: "0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2",
	},
}
