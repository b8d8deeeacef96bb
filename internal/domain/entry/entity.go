package entry

import (
	"github.com/shopspring/decimal"

	"ledger-service/internal/domain/user"
)

// Type classifies a ledger entry as money coming in or going out.
type Type string

const (
	TypeIncome  Type = "INCOME"
	TypeExpense Type = "EXPENSE"
)

// Valid reports whether t is one of the known entry types.
func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Status tracks whether a ledger entry has been settled.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSettled  Status = "SETTLED"
	StatusCanceled Status = "CANCELED"
)

// Valid reports whether s is one of the known entry statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSettled, StatusCanceled:
		return true
	}
	return false
}

// Entry is a single income or expense record tied to a month, a year and a user.
// Zero-valued fields are treated as "not informed".
type Entry struct {
	ID          int64
	Description string
	Month       int
	Year        int
	Value       decimal.Decimal
	Type        Type
	Status      Status
	User        *user.User
}

// UserID returns the id of the referenced user, or zero when there is none.
func (e *Entry) UserID() int64 {
	if e.User == nil {
		return 0
	}
	return e.User.ID
}
