package postgres

import (
	"context"
	"fmt"

	"github.com/baharkarakas/point-service/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pointHistoriesRepo struct{ pool *pgxpool.Pool }

func (r *pointHistoriesRepo) Insert(ctx context.Context, userID, amount int64, typ models.TransactionType, timeMillis int64) (models.PointHistory, error) {
	const q = `
INSERT INTO point_histories (user_id, type, amount, time_millis)
VALUES ($1,$2,$3,$4)
RETURNING id, user_id, type, amount, time_millis;
`
	var h models.PointHistory
	err := r.pool.QueryRow(ctx, q, userID, typ, amount, timeMillis).
		Scan(&h.ID, &h.UserID, &h.Type, &h.Amount, &h.TimeMillis)
	if err != nil {
		return models.PointHistory{}, fmt.Errorf("insert point history: %w", err)
	}
	return h, nil
}

func (r *pointHistoriesRepo) SelectAllByUserID(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	var out []models.PointHistory
	err := retryRead(ctx, func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, user_id, type, amount, time_millis
			   FROM point_histories
			  WHERE user_id=$1
			  ORDER BY id ASC`,
			userID,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PointHistory, error) {
			var h models.PointHistory
			err := row.Scan(&h.ID, &h.UserID, &h.Type, &h.Amount, &h.TimeMillis)
			return h, err
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("select point histories: %w", err)
	}
	if out == nil {
		out = []models.PointHistory{}
	}
	return out, nil
}
