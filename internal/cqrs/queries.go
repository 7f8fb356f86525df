package cqrs

// GetAccountQuery fetches a single account view by aggregate id.
type GetAccountQuery struct {
	ID string
}

// ListAccountsQuery fetches all account views.
type ListAccountsQuery struct{}

// GetBankStatsQuery fetches the bank-wide rollup.
type GetBankStatsQuery struct{}
