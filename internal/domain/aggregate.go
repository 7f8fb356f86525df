package domain

import "fmt"

// Reconstruct rebuilds aggregate state by folding the ordered event history
// through Apply. It is pure: identical history yields identical state on
// every invocation.
func Reconstruct(history []Event) Account {
	state := Account{Status: StatusUninitialized}
	for _, event := range history {
		state = Apply(state, event)
	}
	return state
}

// Apply transitions state for one event. It never rejects: events in the log
// were validated when produced, and Apply must also work during blind replay.
func Apply(state Account, event Event) Account {
	switch e := event.(type) {
	case AccountCreated:
		state.ID = e.ID
		state.Balance = e.InitialBalance
		state.Currency = e.Currency
		state.Status = e.Status
	case AccountCredited:
		state.Balance = state.Balance.Add(e.Amount)
	case AccountDebited:
		state.Balance = state.Balance.Sub(e.Amount)
	}
	return state
}

// Decide validates a command against the current state and produces the
// single event it implies. All invariant enforcement lives here, never in
// Apply.
func Decide(state Account, cmd Command) (Event, error) {
	switch c := cmd.(type) {
	case CreateAccount:
		if !c.InitialBalance.IsPositive() {
			return nil, fmt.Errorf("%w: initial balance must be positive", ErrValidation)
		}
		if state.Exists() {
			return nil, fmt.Errorf("%w: account %s already exists", ErrValidation, c.ID)
		}
		return AccountCreated{
			ID:             c.ID,
			InitialBalance: c.InitialBalance,
			Currency:       c.Currency,
			Status:         StatusActive,
		}, nil

	case Credit:
		if !c.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
		}
		if !state.Exists() {
			return nil, fmt.Errorf("%w: cannot credit an account that is not active", ErrValidation)
		}
		if c.Currency != state.Currency {
			return nil, fmt.Errorf("%w: account %s holds %s, not %s", ErrCurrencyMismatch, state.ID, state.Currency, c.Currency)
		}
		return AccountCredited{ID: c.ID, Amount: c.Amount, Currency: c.Currency}, nil

	case Debit:
		if !c.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
		}
		if !state.Exists() {
			return nil, fmt.Errorf("%w: cannot debit an account that is not active", ErrValidation)
		}
		if c.Currency != state.Currency {
			return nil, fmt.Errorf("%w: account %s holds %s, not %s", ErrCurrencyMismatch, state.ID, state.Currency, c.Currency)
		}
		if c.Amount.GreaterThan(state.Balance) {
			return nil, fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, state.Balance, c.Amount)
		}
		return AccountDebited{ID: c.ID, Amount: c.Amount, Currency: c.Currency}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported command %T", ErrValidation, cmd)
	}
}
