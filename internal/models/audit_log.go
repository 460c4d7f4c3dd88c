package models

import (
	"strconv"
	"time"
)

const EntityUserPoint = "user_point"

const (
	ActionCharge   = "charge"
	ActionUse      = "use"
	ActionRejected = "rejected"
)

// AuditLog is an append-only record of something that happened to an entity.
// ID is assigned by the store when empty.
type AuditLog struct {
	ID         string         `json:"id"`
	EntityType string         `json:"entity_type"`
	EntityID   *string        `json:"entity_id"`
	Action     string         `json:"action"`
	Details    map[string]any `json:"details"`
	CreatedAt  time.Time      `json:"created_at"`
}

func NewUserPointAudit(userID int64, action string, details map[string]any, at time.Time) AuditLog {
	id := strconv.FormatInt(userID, 10)
	return AuditLog{
		EntityType: EntityUserPoint,
		EntityID:   &id,
		Action:     action,
		Details:    details,
		CreatedAt:  at,
	}
}
