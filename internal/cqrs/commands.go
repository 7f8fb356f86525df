package cqrs

import "github.com/shopspring/decimal"

// CreateAccountCommand opens a new account. The aggregate id is generated
// server-side, so the command carries none.
type CreateAccountCommand struct {
	InitialBalance decimal.Decimal
	Currency       string
}

type CreditAccountCommand struct {
	ID       string
	Amount   decimal.Decimal
	Currency string
}

type DebitAccountCommand struct {
	ID       string
	Amount   decimal.Decimal
	Currency string
}
