package query

import (
	"context"

	"github.com/eaglebank/ledger-service/internal/cqrs"
	"github.com/eaglebank/ledger-service/internal/models"
)

// StatsReader serves the bank-wide rollup.
type StatsReader interface {
	GetStats(ctx context.Context) (*models.BankStatsView, error)
}

// AnalyticsQueryService serves the BankStats query.
type AnalyticsQueryService struct {
	stats StatsReader
}

func NewAnalyticsQueryService(stats StatsReader) *AnalyticsQueryService {
	return &AnalyticsQueryService{stats: stats}
}

func (s *AnalyticsQueryService) GetBankStats(ctx context.Context, q cqrs.GetBankStatsQuery) (*models.BankStatsView, error) {
	return s.stats.GetStats(ctx)
}
