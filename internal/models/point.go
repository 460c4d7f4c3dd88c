package models

type UserPoint struct {
	ID           int64 `json:"id"`
	Point        int64 `json:"point"`
	UpdateMillis int64 `json:"updateMillis"`
}

type TransactionType string

const (
	TxnCharge TransactionType = "CHARGE"
	TxnUse    TransactionType = "USE"
)

func (t TransactionType) Valid() bool { return t == TxnCharge || t == TxnUse }

// PointHistory is one immutable row of a user's charge/use ledger.
type PointHistory struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"userId"`
	Type       TransactionType `json:"type"`
	Amount     int64           `json:"amount"`
	TimeMillis int64           `json:"timeMillis"`
}

// Signed returns the balance delta this record applied.
func (h PointHistory) Signed() int64 {
	if h.Type == TxnUse {
		return -h.Amount
	}
	return h.Amount
}
