package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPointHistorySigned(t *testing.T) {
	assert.Equal(t, int64(500), PointHistory{Type: TxnCharge, Amount: 500}.Signed())
	assert.Equal(t, int64(-200), PointHistory{Type: TxnUse, Amount: 200}.Signed())
}

func TestTransactionTypeValid(t *testing.T) {
	assert.True(t, TxnCharge.Valid())
	assert.True(t, TxnUse.Valid())
	assert.False(t, TransactionType("charge").Valid())
	assert.False(t, TransactionType("").Valid())
}

func TestNewUserPointAudit(t *testing.T) {
	l := NewUserPointAudit(42, ActionCharge, map[string]any{"amount": int64(5)}, time.Unix(10, 0))
	assert.Equal(t, EntityUserPoint, l.EntityType)
	assert.Equal(t, "42", *l.EntityID)
	assert.Equal(t, ActionCharge, l.Action)
	assert.Empty(t, l.ID)
}
