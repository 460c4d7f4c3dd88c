package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/baharkarakas/point-service/internal/db"
	"github.com/baharkarakas/point-service/internal/models"
	"github.com/stretchr/testify/require"
)

// Runs against a real database only when TEST_DATABASE_URL is set.
func TestRepositories_Postgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := db.NewPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.RunMigrations(ctx, pool))

	userID := time.Now().UnixNano() % 1_000_000_000
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM user_points WHERE user_id=$1`, userID)
		_, _ = pool.Exec(ctx, `DELETE FROM point_histories WHERE user_id=$1`, userID)
	})

	repos := NewRepositories(pool)

	up, err := repos.UserPoints.SelectByID(ctx, userID)
	require.NoError(t, err)
	require.Zero(t, up.Point)

	up, err = repos.UserPoints.InsertOrUpdate(ctx, userID, 700)
	require.NoError(t, err)
	require.Equal(t, int64(700), up.Point)

	up, err = repos.UserPoints.InsertOrUpdate(ctx, userID, 300)
	require.NoError(t, err)
	got, err := repos.UserPoints.SelectByID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, up, got)

	_, err = repos.UserPoints.InsertOrUpdate(ctx, userID, -1)
	require.ErrorIs(t, err, ErrBalanceOutOfRange)

	hs, err := repos.PointHistories.SelectAllByUserID(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, hs)

	h1, err := repos.PointHistories.Insert(ctx, userID, 700, models.TxnCharge, 1)
	require.NoError(t, err)
	h2, err := repos.PointHistories.Insert(ctx, userID, 400, models.TxnUse, 2)
	require.NoError(t, err)

	hs, err = repos.PointHistories.SelectAllByUserID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, []models.PointHistory{h1, h2}, hs)

	id := "pg-test"
	require.NoError(t, repos.AuditLogs.Create(ctx, models.AuditLog{
		EntityType: models.EntityUserPoint,
		EntityID:   &id,
		Action:     models.ActionCharge,
		Details:    map[string]any{"amount": 700},
	}))
}
