package domain

import "github.com/shopspring/decimal"

// Command is an intent targeting one account aggregate. Commands are not
// persisted; they either produce exactly one event or are rejected.
type Command interface {
	TargetID() string
}

type CreateAccount struct {
	ID             string
	InitialBalance decimal.Decimal
	Currency       string
}

func (c CreateAccount) TargetID() string { return c.ID }

type Credit struct {
	ID       string
	Amount   decimal.Decimal
	Currency string
}

func (c Credit) TargetID() string { return c.ID }

type Debit struct {
	ID       string
	Amount   decimal.Decimal
	Currency string
}

func (c Debit) TargetID() string { return c.ID }
