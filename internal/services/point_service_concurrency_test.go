package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/baharkarakas/point-service/internal/lock"
	"github.com/baharkarakas/point-service/internal/models"
	"github.com/baharkarakas/point-service/internal/policy"
	"github.com/baharkarakas/point-service/internal/repository/memory"
	"github.com/baharkarakas/point-service/internal/worker"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type ledger struct {
	svc       *PointService
	points    *memory.UserPointTable
	histories *memory.PointHistoryTable
	locks     *lock.Manager
}

func newLedger(latency, timeout time.Duration) ledger {
	l := ledger{
		points:    memory.NewUserPointTable(memory.WithLatency(latency)),
		histories: memory.NewPointHistoryTable(memory.WithLatency(latency)),
		locks:     lock.NewManager(timeout),
	}
	l.svc = NewPointService(l.points, l.histories, nil, l.locks, nil)
	return l
}

func (l ledger) balance(t *testing.T, userID int64) int64 {
	t.Helper()
	up, err := l.points.SelectByID(context.Background(), userID)
	require.NoError(t, err)
	return up.Point
}

func (l ledger) historySum(t *testing.T, userID int64) int64 {
	t.Helper()
	hs, err := l.histories.SelectAllByUserID(context.Background(), userID)
	require.NoError(t, err)
	var sum int64
	for _, h := range hs {
		sum += h.Signed()
	}
	return sum
}

func TestConcurrentCharges_SameUser(t *testing.T) {
	l := newLedger(5*time.Millisecond, 5*time.Second)
	ctx := context.Background()

	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := l.svc.ChargePoint(ctx, 1, 5000)
			return err
		})
	}
	require.NoError(t, g.Wait())

	require.Equal(t, int64(10_000), l.balance(t, 1))
	hs, err := l.svc.GetPointHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	for _, h := range hs {
		require.Equal(t, models.TxnCharge, h.Type)
		require.Equal(t, int64(5000), h.Amount)
	}
	require.Zero(t, l.locks.Held())
}

func TestConcurrentUses_SameUser(t *testing.T) {
	l := newLedger(5*time.Millisecond, 5*time.Second)
	ctx := context.Background()

	_, err := l.svc.ChargePoint(ctx, 2, 20_000)
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := l.svc.UsePoint(ctx, 2, 5000)
			return err
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int64(10_000), l.balance(t, 2))
	require.Equal(t, int64(10_000), l.historySum(t, 2))
}

func TestNoLostUpdates(t *testing.T) {
	l := newLedger(time.Millisecond, 10*time.Second)
	ctx := context.Background()
	const n, amount = 40, 1000

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if i%4 == 3 {
				// interleave some reads; they must not disturb the writers
				_, err := l.svc.GetUserPoint(ctx, 3)
				return err
			}
			_, err := l.svc.ChargePoint(ctx, 3, amount)
			return err
		})
	}
	require.NoError(t, g.Wait())

	writes := int64(n - n/4)
	require.Equal(t, writes*amount, l.balance(t, 3))
	require.Equal(t, l.balance(t, 3), l.historySum(t, 3))
}

func TestMixedChargeAndUse_TrajectoryConsistent(t *testing.T) {
	l := newLedger(time.Millisecond, 10*time.Second)
	ctx := context.Background()

	_, err := l.svc.ChargePoint(ctx, 4, 15_000)
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := l.svc.ChargePoint(ctx, 4, 3000)
			return err
		})
		g.Go(func() error {
			_, err := l.svc.UsePoint(ctx, 4, 2000)
			return err
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int64(15_000+10*3000-10*2000), l.balance(t, 4))
	require.Equal(t, l.balance(t, 4), l.historySum(t, 4))
}

func TestConcurrentCharges_StopAtMaxBalance(t *testing.T) {
	l := newLedger(time.Millisecond, 10*time.Second)
	ctx := context.Background()

	_, err := l.points.InsertOrUpdate(ctx, 5, 990_000)
	require.NoError(t, err)

	var ok, capped int32
	var g errgroup.Group
	for i := 0; i < 5; i++ {
		g.Go(func() error {
			_, err := l.svc.ChargePoint(ctx, 5, 5000)
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, policy.ErrBalanceLimitExceeded):
				atomic.AddInt32(&capped, 1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int32(2), ok)
	require.Equal(t, int32(3), capped)
	require.Equal(t, policy.MaxBalance, l.balance(t, 5))
}

func TestBalanceLimitLeavesStateUnchanged(t *testing.T) {
	l := newLedger(0, time.Second)
	ctx := context.Background()

	_, err := l.points.InsertOrUpdate(ctx, 6, 960_000)
	require.NoError(t, err)

	_, err = l.svc.ChargePoint(ctx, 6, 50_000)
	require.ErrorIs(t, err, policy.ErrBalanceLimitExceeded)
	require.Equal(t, int64(960_000), l.balance(t, 6))

	hs, err := l.svc.GetPointHistory(ctx, 6)
	require.NoError(t, err)
	require.Empty(t, hs)
}

func TestDistinctUsersDoNotSerialize(t *testing.T) {
	const latency = 40 * time.Millisecond
	l := newLedger(latency, 5*time.Second)
	ctx := context.Background()

	// one charge is three store calls: read, write, append
	single := 3 * latency

	start := time.Now()
	var g errgroup.Group
	for _, uid := range []int64{10, 11} {
		uid := uid
		g.Go(func() error {
			_, err := l.svc.ChargePoint(ctx, uid, 100)
			return err
		})
	}
	require.NoError(t, g.Wait())
	require.Less(t, time.Since(start), 2*single-latency)
}

func TestFailedOperationReleasesLock(t *testing.T) {
	l := newLedger(0, 2*time.Second)
	ctx := context.Background()

	_, err := l.svc.UsePoint(ctx, 7, 100)
	require.ErrorIs(t, err, policy.ErrInsufficientBalance)

	start := time.Now()
	_, err = l.svc.ChargePoint(ctx, 7, 100)
	require.NoError(t, err)
	require.Less(t, time.Since(start), 500*time.Millisecond)
	require.Zero(t, l.locks.Held())
}

func TestLockTimeoutRejectsWaiter(t *testing.T) {
	// the first section takes ~300ms, the waiter gives up after 50ms
	l := newLedger(100*time.Millisecond, 50*time.Millisecond)
	ctx := context.Background()

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := l.svc.ChargePoint(ctx, 8, 1000)
			errs <- err
		}()
	}

	var timeouts, successes int
	for i := 0; i < 2; i++ {
		err := <-errs
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, lock.ErrLockTimeout)
		require.Equal(t, "lock_timeout", ErrorCode(err))
		timeouts++
	}
	require.Equal(t, 1, successes)
	require.Equal(t, 1, timeouts)
	require.Equal(t, int64(1000), l.balance(t, 8))
}

func TestCanceledCallerStillCompletesSection(t *testing.T) {
	l := newLedger(30*time.Millisecond, time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := l.svc.ChargePoint(ctx, 9, 700)
		done <- err
	}()
	time.Sleep(40 * time.Millisecond)
	cancel()

	require.NoError(t, <-done)
	require.Equal(t, int64(700), l.balance(t, 9))
	require.Equal(t, int64(700), l.historySum(t, 9))
}

func TestAuditEntriesAreWritten(t *testing.T) {
	audits := memory.NewAuditLogTable()
	wp := worker.NewPool(2)
	svc := NewPointService(memory.NewUserPointTable(), memory.NewPointHistoryTable(), audits, lock.NewManager(0), wp)
	ctx := context.Background()

	_, err := svc.ChargePoint(ctx, 1, 300)
	require.NoError(t, err)
	_, err = svc.UsePoint(ctx, 1, 1000)
	require.ErrorIs(t, err, policy.ErrInsufficientBalance)
	wp.Stop()

	logs := audits.List()
	require.Len(t, logs, 2)
	actions := []string{logs[0].Action, logs[1].Action}
	require.ElementsMatch(t, []string{"charge", "rejected"}, actions)
	for _, l := range logs {
		require.Equal(t, models.EntityUserPoint, l.EntityType)
		require.Equal(t, "1", *l.EntityID)
	}
}
