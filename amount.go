package tempo

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// ParseAmount converts a human-readable decimal amount into atomic units
// for a token with the given precision. For example, "1.5" with 6 decimals
// becomes 1500000.
//
// Returns ErrInvalidAmount if the string is malformed, not strictly
// positive, or carries more fractional digits than the token can represent.
func ParseAmount(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than 0, got %q", ErrInvalidAmount, amount)
	}

	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("%w: %q exceeds %d decimal places", ErrInvalidAmount, amount, decimals)
	}
	return scaled.BigInt(), nil
}

// FormatAmount converts atomic units back into a full-precision decimal
// string. For example, 1500000 with 6 decimals becomes "1.5".
func FormatAmount(units *big.Int, decimals uint8) string {
	if units == nil {
		return "0"
	}
	return decimal.NewFromBigInt(units, -int32(decimals)).String()
}

// AbbreviateAmount renders atomic units for display: values of a million
// and above as "<n>M", a thousand and above as "<n>K", and everything
// below as a fixed two-decimal string. The abbreviation is lossy; the raw
// value must never be reconstructed from it.
func AbbreviateAmount(units *big.Int, decimals uint8) string {
	if units == nil {
		return "0.00"
	}

	v := decimal.NewFromBigInt(units, -int32(decimals))
	switch {
	case v.GreaterThanOrEqual(million):
		return v.Div(million).StringFixed(2) + "M"
	case v.GreaterThanOrEqual(thousand):
		return v.Div(thousand).StringFixed(2) + "K"
	default:
		return v.StringFixed(2)
	}
}
