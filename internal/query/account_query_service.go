package query

import (
	"context"

	"github.com/eaglebank/ledger-service/internal/cqrs"
	"github.com/eaglebank/ledger-service/internal/models"
)

// AccountViewReader is the read-model access the query side needs.
type AccountViewReader interface {
	Get(ctx context.Context, id string) (*models.AccountView, error)
	List(ctx context.Context) ([]models.AccountView, error)
}

// AccountQueryService serves account queries from the read model. Results
// lag the write path by the projection delay (eventual consistency).
type AccountQueryService struct {
	views AccountViewReader
}

func NewAccountQueryService(views AccountViewReader) *AccountQueryService {
	return &AccountQueryService{views: views}
}

// GetAccountByID returns one account view or an error wrapping
// domain.ErrNotFound.
func (s *AccountQueryService) GetAccountByID(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	return s.views.Get(ctx, q.ID)
}

// GetAllAccounts returns every known account view.
func (s *AccountQueryService) GetAllAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]models.AccountView, error) {
	return s.views.List(ctx)
}
