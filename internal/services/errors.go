package services

import (
	"context"
	"errors"

	"github.com/baharkarakas/point-service/internal/lock"
	"github.com/baharkarakas/point-service/internal/policy"
)

// ErrorCode maps a ledger error to a stable machine-readable code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, policy.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, policy.ErrBelowMinimum):
		return "below_minimum"
	case errors.Is(err, policy.ErrChargeLimitExceeded):
		return "charge_limit_exceeded"
	case errors.Is(err, policy.ErrUseLimitExceeded):
		return "use_limit_exceeded"
	case errors.Is(err, policy.ErrBalanceLimitExceeded):
		return "balance_limit_exceeded"
	case errors.Is(err, policy.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, lock.ErrLockTimeout):
		return "lock_timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal_error"
	}
}
