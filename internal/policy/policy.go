// Package policy holds the fixed numeric rules every charge and use must satisfy.
// All functions are pure and safe to call from any goroutine.
package policy

import (
	"errors"
	"fmt"
)

const (
	MaxBalance      int64 = 1_000_000
	MinTransaction  int64 = 1
	MaxChargeAmount int64 = 100_000
	MaxUseAmount    int64 = 50_000
)

var (
	ErrInvalidAmount        = errors.New("amount must be greater than 0")
	ErrBelowMinimum         = errors.New("amount is below the minimum transaction")
	ErrChargeLimitExceeded  = errors.New("single charge limit exceeded")
	ErrUseLimitExceeded     = errors.New("single use limit exceeded")
	ErrBalanceLimitExceeded = errors.New("balance limit exceeded")
	ErrInsufficientBalance  = errors.New("insufficient balance")
)

func ValidateChargeAmount(amount int64) error {
	return validateAmount(amount, MaxChargeAmount, ErrChargeLimitExceeded)
}

func ValidateUseAmount(amount int64) error {
	return validateAmount(amount, MaxUseAmount, ErrUseLimitExceeded)
}

func validateAmount(amount, max int64, errLimit error) error {
	if amount <= 0 {
		return fmt.Errorf("%w (got %d)", ErrInvalidAmount, amount)
	}
	// unreachable for integer amounts while MinTransaction is 1
	if amount < MinTransaction {
		return fmt.Errorf("%w (min: %d points)", ErrBelowMinimum, MinTransaction)
	}
	if amount > max {
		return fmt.Errorf("%w (max: %d points)", errLimit, max)
	}
	return nil
}

func ValidateBalanceAfterCharge(currentBalance, chargeAmount int64) error {
	if currentBalance+chargeAmount > MaxBalance {
		return fmt.Errorf("%w (max: %d points)", ErrBalanceLimitExceeded, MaxBalance)
	}
	return nil
}

func ValidateBalanceForUse(currentBalance, useAmount int64) error {
	if currentBalance < useAmount {
		return fmt.Errorf("%w (balance: %d, requested: %d)", ErrInsufficientBalance, currentBalance, useAmount)
	}
	return nil
}

// IsViolation reports whether err came from one of the rules above.
func IsViolation(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrBelowMinimum, ErrChargeLimitExceeded,
		ErrUseLimitExceeded, ErrBalanceLimitExceeded, ErrInsufficientBalance,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
