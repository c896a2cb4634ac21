package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Normalize rounds a monetary value to exactly two fractional digits using
// banker's rounding. Every balance and amount is normalized before it is
// stored or compared.
func Normalize(v decimal.Decimal) decimal.Decimal {
	return v.RoundBank(2)
}

// ValidateAmount checks a transactional amount: at most two fractional
// digits, strictly positive.
func ValidateAmount(v decimal.Decimal) error {
	if !v.Equal(v.Truncate(2)) {
		return fmt.Errorf("ValidateAmount: more than two decimal places: %w", ErrInvalidAmount)
	}
	if v.Sign() <= 0 {
		return fmt.Errorf("ValidateAmount: %w", ErrInvalidAmount)
	}
	return nil
}

// ValidateInitialBalance is the account-creation variant: zero is allowed.
func ValidateInitialBalance(v decimal.Decimal) error {
	if !v.Equal(v.Truncate(2)) {
		return fmt.Errorf("ValidateInitialBalance: more than two decimal places: %w", ErrInvalidAmount)
	}
	if v.Sign() < 0 {
		return fmt.Errorf("ValidateInitialBalance: %w", ErrInvalidAmount)
	}
	return nil
}
