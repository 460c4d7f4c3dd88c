package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/baharkarakas/point-service/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrBalanceOutOfRange is returned when the database refuses a balance that
// breaks its CHECK constraint.
var ErrBalanceOutOfRange = errors.New("balance out of range")

type userPointsRepo struct{ pool *pgxpool.Pool }

func (r *userPointsRepo) SelectByID(ctx context.Context, userID int64) (models.UserPoint, error) {
	up := models.UserPoint{ID: userID}
	err := retryRead(ctx, func() error {
		return r.pool.QueryRow(ctx,
			`SELECT point, update_millis
			   FROM user_points
			  WHERE user_id=$1`,
			userID,
		).Scan(&up.Point, &up.UpdateMillis)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return models.UserPoint{ID: userID, Point: 0, UpdateMillis: time.Now().UnixMilli()}, nil
	}
	if err != nil {
		return models.UserPoint{}, fmt.Errorf("select user point: %w", err)
	}
	return up, nil
}

func (r *userPointsRepo) InsertOrUpdate(ctx context.Context, userID, point int64) (models.UserPoint, error) {
	var up models.UserPoint
	err := r.pool.QueryRow(ctx,
		`INSERT INTO user_points(user_id, point, update_millis)
		 VALUES($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE
		    SET point = EXCLUDED.point,
		        update_millis = EXCLUDED.update_millis
		 RETURNING user_id, point, update_millis`,
		userID, point, time.Now().UnixMilli(),
	).Scan(&up.ID, &up.Point, &up.UpdateMillis)
	if isCheckViolation(err) {
		return models.UserPoint{}, fmt.Errorf("upsert user point %d: %w", point, ErrBalanceOutOfRange)
	}
	if err != nil {
		return models.UserPoint{}, fmt.Errorf("upsert user point: %w", err)
	}
	return up, nil
}
