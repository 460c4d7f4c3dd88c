package postgres

import (
	repo "github.com/baharkarakas/point-service/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositories(pool *pgxpool.Pool) repo.Repositories {
	return repo.Repositories{
		UserPoints:     &userPointsRepo{pool},
		PointHistories: &pointHistoriesRepo{pool},
		AuditLogs:      &auditLogsRepo{pool},
	}
}
