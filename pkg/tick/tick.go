// Package tick converts between decimal price strings and the integer
// tick units the remote order book quotes in (price scaled by 1e7).
package tick

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Decimals is the fixed tick precision of the order book.
const Decimals = 7

// ToTick converts a decimal price string to ticks, rounding half away
// from zero at the 7th fractional digit.
func ToTick(price string) (*big.Int, error) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, errors.Wrapf(err, "tick: bad price %q", price)
	}
	if d.IsNegative() {
		return nil, errors.Errorf("tick: negative price %q", price)
	}
	return d.Shift(Decimals).Round(0).BigInt(), nil
}

// ToPrice converts ticks back to a decimal string with full 7-digit
// precision. ToPrice(ToTick(p)) == p for any p with <= 7 fractional digits.
func ToPrice(t *big.Int) string {
	return decimal.NewFromBigInt(t, -Decimals).StringFixed(Decimals)
}
