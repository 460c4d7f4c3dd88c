package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/baharkarakas/point-service/internal/lock"
	"github.com/baharkarakas/point-service/internal/metrics"
	"github.com/baharkarakas/point-service/internal/models"
	"github.com/baharkarakas/point-service/internal/policy"
	repo "github.com/baharkarakas/point-service/internal/repository"
	"github.com/baharkarakas/point-service/internal/worker"
)

// Locker serializes critical sections per user. *lock.Manager implements it.
type Locker interface {
	WithLock(ctx context.Context, userID int64, fn func() error) error
}

type PointService struct {
	points    repo.UserPoints
	histories repo.PointHistories
	audits    repo.AuditLogs
	locks     Locker
	wp        *worker.Pool
}

// NewPointService wires the ledger. audits and wp may be nil, in which case
// nothing is audited.
func NewPointService(p repo.UserPoints, h repo.PointHistories, a repo.AuditLogs, l Locker, wp *worker.Pool) *PointService {
	return &PointService{points: p, histories: h, audits: a, locks: l, wp: wp}
}

// ----------------- Queries -----------------

func (s *PointService) GetUserPoint(ctx context.Context, userID int64) (models.UserPoint, error) {
	return s.points.SelectByID(ctx, userID)
}

func (s *PointService) GetPointHistory(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	return s.histories.SelectAllByUserID(ctx, userID)
}

// ----------------- Mutations -----------------

type rule struct {
	typ          models.TransactionType
	checkAmount  func(amount int64) error
	checkBalance func(current, amount int64) error
	apply        func(current, amount int64) int64
}

var (
	chargeRule = rule{
		typ:          models.TxnCharge,
		checkAmount:  policy.ValidateChargeAmount,
		checkBalance: policy.ValidateBalanceAfterCharge,
		apply:        func(cur, amt int64) int64 { return cur + amt },
	}
	useRule = rule{
		typ:          models.TxnUse,
		checkAmount:  policy.ValidateUseAmount,
		checkBalance: policy.ValidateBalanceForUse,
		apply:        func(cur, amt int64) int64 { return cur - amt },
	}
)

func (s *PointService) ChargePoint(ctx context.Context, userID, amount int64) (models.UserPoint, error) {
	return s.mutate(ctx, chargeRule, userID, amount)
}

func (s *PointService) UsePoint(ctx context.Context, userID, amount int64) (models.UserPoint, error) {
	return s.mutate(ctx, useRule, userID, amount)
}

func (s *PointService) mutate(ctx context.Context, r rule, userID, amount int64) (models.UserPoint, error) {
	var (
		out    models.UserPoint
		before int64
	)
	err := s.locks.WithLock(ctx, userID, func() error {
		// a started section runs to completion even if the caller goes away
		ctx := context.WithoutCancel(ctx)

		if err := r.checkAmount(amount); err != nil {
			return err
		}
		cur, err := s.points.SelectByID(ctx, userID)
		if err != nil {
			return err
		}
		before = cur.Point
		if err := r.checkBalance(cur.Point, amount); err != nil {
			return err
		}

		updated, err := s.points.InsertOrUpdate(ctx, userID, r.apply(cur.Point, amount))
		if err != nil {
			return err
		}
		if _, err := s.histories.Insert(ctx, userID, amount, r.typ, updated.UpdateMillis); err != nil {
			// rollback so the balance never moves without a history row
			if _, rbErr := s.points.InsertOrUpdate(ctx, userID, cur.Point); rbErr != nil {
				return errors.Join(err, fmt.Errorf("rollback balance: %w", rbErr))
			}
			return err
		}
		out = updated
		return nil
	})

	if err != nil {
		s.fail(r.typ, userID, amount, err)
		return models.UserPoint{}, err
	}

	metrics.TransactionsTotal.WithLabelValues(string(r.typ)).Inc()
	s.audit(userID, actionFor(r.typ), map[string]any{
		"amount": amount,
		"before": before,
		"after":  out.Point,
	})
	return out, nil
}

func (s *PointService) fail(typ models.TransactionType, userID, amount int64, err error) {
	code := ErrorCode(err)
	metrics.TransactionsFailed.WithLabelValues(string(typ), code).Inc()
	switch {
	case policy.IsViolation(err):
		slog.Warn("point transaction rejected", "type", typ, "user_id", userID, "amount", amount, "err", err)
		s.audit(userID, models.ActionRejected, map[string]any{"type": string(typ), "amount": amount, "reason": code})
	case errors.Is(err, lock.ErrLockTimeout):
		slog.Warn("point transaction lock timeout", "type", typ, "user_id", userID, "amount", amount)
	default:
		slog.Error("point transaction failed", "type", typ, "user_id", userID, "amount", amount, "err", err)
	}
}

func actionFor(typ models.TransactionType) string {
	if typ == models.TxnUse {
		return models.ActionUse
	}
	return models.ActionCharge
}

// audit hands the entry to the worker pool so the request never waits on it.
func (s *PointService) audit(userID int64, action string, details map[string]any) {
	if s.audits == nil || s.wp == nil {
		return
	}
	entry := models.NewUserPointAudit(userID, action, details, time.Now())
	s.wp.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.audits.Create(ctx, entry); err != nil {
			slog.Error("audit log write failed", "user_id", userID, "action", action, "err", err)
		}
	})
}
