package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/tradepay/internal/apperrors"
)

// Scale is the number of fractional digits carried by one minor unit.
const Scale = 2

// Currency is the display prefix used in notifications.
const Currency = "R$"

// ToMinor converts a major-unit decimal amount into integer minor units. Amounts with more
// fractional digits than Scale, or that are not strictly positive, are rejected.
func ToMinor(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, apperrors.ErrInvalidAmount
	}
	minor := amount.Shift(Scale)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: at most %d decimal places", apperrors.ErrInvalidAmount, Scale)
	}
	if minor.GreaterThan(decimal.NewFromInt(maxMinor)) {
		return 0, fmt.Errorf("%w: amount too large", apperrors.ErrInvalidAmount)
	}
	return minor.IntPart(), nil
}

// FromMinor returns the major-unit decimal for an amount in minor units.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -Scale)
}

// Format renders minor units for humans, e.g. 30050 -> "R$300.50".
func Format(minor int64) string {
	return Currency + FromMinor(minor).StringFixed(Scale)
}

const maxMinor = int64(1<<63 - 1)
