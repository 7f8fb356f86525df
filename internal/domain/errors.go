package domain

import "errors"

var (
	// ErrValidation covers non-positive amounts and commands applied to the
	// wrong lifecycle state. Returned before any event is produced.
	ErrValidation = errors.New("validation failed")

	// ErrCurrencyMismatch rejects a credit or debit whose currency does not
	// match the currency the account was created with.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrInsufficientFunds rejects a debit that exceeds the current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotFound signals a command or query against an account that has no
	// event history.
	ErrNotFound = errors.New("account not found")
)
