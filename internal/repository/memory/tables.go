// Package memory holds map-backed tables for the balance, history and audit
// stores. They are safe for concurrent use; each call is atomic on its own but
// callers still need the per-user lock for read-modify-write sequences.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/baharkarakas/point-service/internal/models"
	repo "github.com/baharkarakas/point-service/internal/repository"
	"github.com/google/uuid"
)

type Option func(*options)

type options struct {
	latency time.Duration
	now     func() time.Time
}

// WithLatency delays every table call, which is how the stores behave when they
// sit on the far side of a network.
func WithLatency(d time.Duration) Option { return func(o *options) { o.latency = d } }

func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o options) wait(ctx context.Context) error {
	if o.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(o.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func NewRepositories(opts ...Option) repo.Repositories {
	return repo.Repositories{
		UserPoints:     NewUserPointTable(opts...),
		PointHistories: NewPointHistoryTable(opts...),
		AuditLogs:      NewAuditLogTable(),
	}
}

// ---------- user points ----------

type UserPointTable struct {
	opts options
	mu   sync.RWMutex
	rows map[int64]models.UserPoint
}

var _ repo.UserPoints = (*UserPointTable)(nil)

func NewUserPointTable(opts ...Option) *UserPointTable {
	return &UserPointTable{opts: newOptions(opts), rows: make(map[int64]models.UserPoint)}
}

func (t *UserPointTable) SelectByID(ctx context.Context, userID int64) (models.UserPoint, error) {
	if err := t.opts.wait(ctx); err != nil {
		return models.UserPoint{}, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if row, ok := t.rows[userID]; ok {
		return row, nil
	}
	return models.UserPoint{ID: userID, Point: 0, UpdateMillis: t.opts.now().UnixMilli()}, nil
}

func (t *UserPointTable) InsertOrUpdate(ctx context.Context, userID, point int64) (models.UserPoint, error) {
	if err := t.opts.wait(ctx); err != nil {
		return models.UserPoint{}, err
	}
	row := models.UserPoint{ID: userID, Point: point, UpdateMillis: t.opts.now().UnixMilli()}
	t.mu.Lock()
	t.rows[userID] = row
	t.mu.Unlock()
	return row, nil
}

// ---------- point histories ----------

type PointHistoryTable struct {
	opts   options
	mu     sync.RWMutex
	nextID int64
	rows   []models.PointHistory
}

var _ repo.PointHistories = (*PointHistoryTable)(nil)

func NewPointHistoryTable(opts ...Option) *PointHistoryTable {
	return &PointHistoryTable{opts: newOptions(opts), nextID: 1}
}

func (t *PointHistoryTable) Insert(ctx context.Context, userID, amount int64, typ models.TransactionType, timeMillis int64) (models.PointHistory, error) {
	if err := t.opts.wait(ctx); err != nil {
		return models.PointHistory{}, err
	}
	if !typ.Valid() {
		return models.PointHistory{}, fmt.Errorf("unknown transaction type %q", typ)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	h := models.PointHistory{ID: t.nextID, UserID: userID, Type: typ, Amount: amount, TimeMillis: timeMillis}
	t.nextID++
	t.rows = append(t.rows, h)
	return h, nil
}

func (t *PointHistoryTable) SelectAllByUserID(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	if err := t.opts.wait(ctx); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := []models.PointHistory{}
	for _, h := range t.rows {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

// ---------- audit logs ----------

type AuditLogTable struct {
	mu   sync.Mutex
	rows []models.AuditLog
}

var _ repo.AuditLogs = (*AuditLogTable)(nil)

func NewAuditLogTable() *AuditLogTable { return &AuditLogTable{} }

func (t *AuditLogTable) Create(ctx context.Context, l models.AuditLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	t.mu.Lock()
	t.rows = append(t.rows, l)
	t.mu.Unlock()
	return nil
}

// List returns a copy of the stored entries, oldest first.
func (t *AuditLogTable) List() []models.AuditLog {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.AuditLog, len(t.rows))
	copy(out, t.rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
