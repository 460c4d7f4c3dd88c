package services

import (
	"context"

	"github.com/baharkarakas/point-service/internal/models"
	"github.com/stretchr/testify/mock"
)

type UserPointsMock struct {
	mock.Mock
}

func (m *UserPointsMock) SelectByID(ctx context.Context, userID int64) (models.UserPoint, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.UserPoint), args.Error(1)
}

func (m *UserPointsMock) InsertOrUpdate(ctx context.Context, userID, point int64) (models.UserPoint, error) {
	args := m.Called(ctx, userID, point)
	return args.Get(0).(models.UserPoint), args.Error(1)
}

type PointHistoriesMock struct {
	mock.Mock
}

func (m *PointHistoriesMock) Insert(ctx context.Context, userID, amount int64, typ models.TransactionType, timeMillis int64) (models.PointHistory, error) {
	args := m.Called(ctx, userID, amount, typ, timeMillis)
	return args.Get(0).(models.PointHistory), args.Error(1)
}

func (m *PointHistoriesMock) SelectAllByUserID(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.PointHistory), args.Error(1)
}

// passLocker runs fn inline; used where only the section body is under test.
type passLocker struct{}

func (passLocker) WithLock(_ context.Context, _ int64, fn func() error) error { return fn() }
