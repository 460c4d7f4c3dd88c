package validate

import (
	"strconv"
	"strings"
)

// MaxRequestAmount bounds amounts accepted at the HTTP edge. The ledger
// applies its own, tighter per-transaction limits afterwards.
const MaxRequestAmount int64 = 1_000_000

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string {
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Collect drops nil results and returns nil when nothing failed.
func Collect(checks ...*ErrField) error {
	var errs Errs
	for _, c := range checks {
		if c != nil {
			errs = append(errs, *c)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// PositiveID parses a path id such as "42".
func PositiveID(field, raw string) (int64, *ErrField) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &ErrField{Field: field, Msg: "must be a positive integer"}
	}
	return id, nil
}

func IntRange(field string, v, min, max int64) *ErrField {
	if v < min || v > max {
		return &ErrField{Field: field, Msg: "must be between " + strconv.FormatInt(min, 10) + " and " + strconv.FormatInt(max, 10)}
	}
	return nil
}

func Amount(v int64) *ErrField {
	return IntRange("amount", v, 1, MaxRequestAmount)
}
