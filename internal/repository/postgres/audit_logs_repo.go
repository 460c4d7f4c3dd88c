package postgres

import (
	"context"
	"time"

	"github.com/baharkarakas/point-service/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type auditLogsRepo struct{ pool *pgxpool.Pool }

func (r *auditLogsRepo) Create(ctx context.Context, l models.AuditLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_logs(id, entity_type, entity_id, action, details, created_at)
		 VALUES($1,$2,$3,$4,$5,$6)`,
		l.ID, l.EntityType, l.EntityID, l.Action, l.Details, l.CreatedAt,
	)
	return err
}
