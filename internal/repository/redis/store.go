// Package redis keeps balances, histories and audit entries in Redis.
//
// Layout:
//
//	point:user:{id}     hash {point, update_millis}
//	point:history:{id}  list of JSON records, oldest first
//	point:history:seq   INCR counter for history ids
//	point:audit         capped list of JSON audit entries, newest first
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/baharkarakas/point-service/internal/models"
	repo "github.com/baharkarakas/point-service/internal/repository"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	keyHistorySeq = "point:history:seq"
	keyAudit      = "point:audit"
	auditCap      = 10_000
)

func userKey(userID int64) string    { return "point:user:" + strconv.FormatInt(userID, 10) }
func historyKey(userID int64) string { return "point:history:" + strconv.FormatInt(userID, 10) }

type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects and pings before returning.
func NewClient(ctx context.Context, cfg Config) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

func NewRepositories(rdb *goredis.Client) repo.Repositories {
	return repo.Repositories{
		UserPoints:     &userPointsStore{rdb},
		PointHistories: &pointHistoriesStore{rdb},
		AuditLogs:      &auditLogsStore{rdb},
	}
}

type userPointsStore struct{ rdb *goredis.Client }

func (s *userPointsStore) SelectByID(ctx context.Context, userID int64) (models.UserPoint, error) {
	vals, err := s.rdb.HGetAll(ctx, userKey(userID)).Result()
	if err != nil {
		return models.UserPoint{}, fmt.Errorf("select user point: %w", err)
	}
	if len(vals) == 0 {
		return models.UserPoint{ID: userID, Point: 0, UpdateMillis: time.Now().UnixMilli()}, nil
	}
	point, err := strconv.ParseInt(vals["point"], 10, 64)
	if err != nil {
		return models.UserPoint{}, fmt.Errorf("decode point for user %d: %w", userID, err)
	}
	updated, err := strconv.ParseInt(vals["update_millis"], 10, 64)
	if err != nil {
		return models.UserPoint{}, fmt.Errorf("decode update_millis for user %d: %w", userID, err)
	}
	return models.UserPoint{ID: userID, Point: point, UpdateMillis: updated}, nil
}

func (s *userPointsStore) InsertOrUpdate(ctx context.Context, userID, point int64) (models.UserPoint, error) {
	up := models.UserPoint{ID: userID, Point: point, UpdateMillis: time.Now().UnixMilli()}
	if err := s.rdb.HSet(ctx, userKey(userID), "point", up.Point, "update_millis", up.UpdateMillis).Err(); err != nil {
		return models.UserPoint{}, fmt.Errorf("upsert user point: %w", err)
	}
	return up, nil
}

type pointHistoriesStore struct{ rdb *goredis.Client }

func (s *pointHistoriesStore) Insert(ctx context.Context, userID, amount int64, typ models.TransactionType, timeMillis int64) (models.PointHistory, error) {
	if !typ.Valid() {
		return models.PointHistory{}, fmt.Errorf("unknown transaction type %q", typ)
	}
	id, err := s.rdb.Incr(ctx, keyHistorySeq).Result()
	if err != nil {
		return models.PointHistory{}, fmt.Errorf("next history id: %w", err)
	}
	h := models.PointHistory{ID: id, UserID: userID, Type: typ, Amount: amount, TimeMillis: timeMillis}
	b, err := json.Marshal(h)
	if err != nil {
		return models.PointHistory{}, err
	}
	if err := s.rdb.RPush(ctx, historyKey(userID), b).Err(); err != nil {
		return models.PointHistory{}, fmt.Errorf("insert point history: %w", err)
	}
	return h, nil
}

func (s *pointHistoriesStore) SelectAllByUserID(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	raw, err := s.rdb.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("select point histories: %w", err)
	}
	out := make([]models.PointHistory, 0, len(raw))
	for _, r := range raw {
		var h models.PointHistory
		if err := json.Unmarshal([]byte(r), &h); err != nil {
			return nil, fmt.Errorf("decode point history: %w", err)
		}
		out = append(out, h)
	}
	return out, nil
}

type auditLogsStore struct{ rdb *goredis.Client }

func (s *auditLogsStore) Create(ctx context.Context, l models.AuditLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	b, err := json.Marshal(l)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.LPush(ctx, keyAudit, b)
		p.LTrim(ctx, keyAudit, 0, auditCap-1)
		return nil
	})
	return err
}
