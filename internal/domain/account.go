package domain

import "github.com/shopspring/decimal"

// Status is the lifecycle state of an account aggregate.
type Status string

const (
	// StatusUninitialized means no events have been replayed yet — the
	// aggregate does not exist until an AccountCreated event is applied.
	StatusUninitialized Status = "UNINITIALIZED"
	StatusActive        Status = "ACTIVE"
)

// Account is the write-side aggregate state. It is never stored directly:
// it exists only as the result of replaying the account's event history.
type Account struct {
	ID       string
	Balance  decimal.Decimal
	Currency string
	Status   Status
}

// Exists reports whether the aggregate has been created.
func (a Account) Exists() bool {
	return a.Status == StatusActive
}
