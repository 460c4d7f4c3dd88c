package repository

import (
	"context"

	"github.com/baharkarakas/point-service/internal/models"
)

// UserPoints is the balance table. SelectByID returns a zero balance for a user
// that has never been written, it is not an error.
type UserPoints interface {
	SelectByID(ctx context.Context, userID int64) (models.UserPoint, error)
	InsertOrUpdate(ctx context.Context, userID, point int64) (models.UserPoint, error)
}

// PointHistories is append-only. SelectAllByUserID returns rows in insertion
// order and an empty slice for users without history.
type PointHistories interface {
	Insert(ctx context.Context, userID, amount int64, typ models.TransactionType, timeMillis int64) (models.PointHistory, error)
	SelectAllByUserID(ctx context.Context, userID int64) ([]models.PointHistory, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

type Repositories struct {
	UserPoints     UserPoints
	PointHistories PointHistories
	AuditLogs      AuditLogs
}
