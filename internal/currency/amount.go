package currency

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrAmountPrecision   = errors.New("amount has more decimal places than the token supports")
)

// ToSmallestUnit parses a display amount ("40", "0.25") and scales it to the
// token's smallest unit.
func ToSmallestUnit(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrInvalidAmount, amount)
	}
	if !d.IsPositive() {
		return nil, ErrNonPositiveAmount
	}

	scaled := d.Shift(Decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, ErrAmountPrecision
	}

	return scaled.BigInt(), nil
}

// FromSmallestUnit converts a raw on-chain amount into its display value.
// A nil value is zero.
func FromSmallestUnit(value *big.Int) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -Decimals)
}

// Format renders a display amount without trailing zeros.
func Format(d decimal.Decimal) string {
	return d.String()
}

// Normalize round-trips amount through smallest units and returns the display
// string that will be recorded for it.
func Normalize(amount string) (string, error) {
	value, err := ToSmallestUnit(amount)
	if err != nil {
		return "", err
	}
	return Format(FromSmallestUnit(value)), nil
}
