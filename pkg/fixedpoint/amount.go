package fixedpoint

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrParse is returned for empty, non-numeric or negative amount input.
// Negative amounts are rejected outright rather than clamped; the scaled
// integer form of an amount is always >= 0.
var ErrParse = errors.New("fixedpoint: invalid amount")

// Outcome classifies a scaled amount against the funds available for it.
// Invalid is the zero value, so an Outcome returned alongside an error can
// never be mistaken for a successful check.
type Outcome int

const (
	Invalid Outcome = iota // amount could not be parsed or checked
	Ok
	InsufficientBalance
	BelowMinimum
)

func (o Outcome) String() string {
	switch o {
	case Invalid:
		return "invalid"
	case Ok:
		return "ok"
	case InsufficientBalance:
		return "insufficient balance"
	case BelowMinimum:
		return "below minimum"
	default:
		return "unknown"
	}
}

// Parse converts a human-entered decimal string into the integer amount
// scaled by 10^decimals. Fractional digits beyond the asset's precision
// are truncated, matching what the ledger can represent.
func Parse(raw string, decimals uint8) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.Wrap(ErrParse, "empty input")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "not a number: %q", raw)
	}
	if d.IsNegative() {
		return nil, errors.Wrapf(ErrParse, "negative amount: %q", raw)
	}
	return d.Shift(int32(decimals)).Truncate(0).BigInt(), nil
}

// Validate checks a parsed amount against the available balance and an
// optional minimum (nil = no minimum). Pure; safe to run per keystroke.
func Validate(scaled, available, minimum *big.Int) Outcome {
	if scaled.Cmp(available) > 0 {
		return InsufficientBalance
	}
	if minimum != nil && scaled.Cmp(minimum) < 0 {
		return BelowMinimum
	}
	return Ok
}

// Format renders a scaled integer back to a decimal string with the
// asset's full precision. Inverse of Parse for inputs within precision.
func Format(scaled *big.Int, decimals uint8) string {
	return decimal.NewFromBigInt(scaled, -int32(decimals)).StringFixed(int32(decimals))
}
