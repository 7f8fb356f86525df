package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountView is the read-optimised projection of one account.
// Version is the last event version applied by the projector; it is the
// idempotency watermark under at-least-once delivery and is never serialised.
type AccountView struct {
	ID        string          `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	Version   int64           `json:"-"`
	CreatedAt time.Time       `json:"createdTimestamp"`
	UpdatedAt time.Time       `json:"updatedTimestamp"`
}

// BankStatsView is the single bank-wide rollup.
type BankStatsView struct {
	TotalBalance decimal.Decimal `json:"totalBalance"`
	AccountCount int64           `json:"accountCount"`
}
