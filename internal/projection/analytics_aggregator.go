package projection

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/eaglebank/ledger-service/internal/domain"
	"github.com/eaglebank/ledger-service/internal/events"
)

// StatsID names the singleton bank-wide rollup row. It is created on first
// write, never deleted.
const StatsID = "BANK_STATS_001"

// StatsStore is the storage contract for the rollup. ApplyOnce must advance
// the per-aggregate watermark and apply the deltas in one atomic step.
type StatsStore interface {
	// ApplyOnce applies (balanceDelta, countDelta) to the rollup iff version
	// is exactly one past the aggregate's watermark, advancing it. Returns
	// false for an already-applied version, and an error wrapping
	// ErrProjectionOrdering when version skips ahead of the watermark.
	ApplyOnce(ctx context.Context, aggregateID string, version int64, balanceDelta decimal.Decimal, countDelta int64) (bool, error)
}

// AnalyticsAggregator folds every account event into the BankStats rollup.
type AnalyticsAggregator struct {
	stats StatsStore
}

func NewAnalyticsAggregator(stats StatsStore) *AnalyticsAggregator {
	return &AnalyticsAggregator{stats: stats}
}

// Handle applies one delivered event to the rollup exactly once, regardless
// of how many times the bus delivers it.
func (a *AnalyticsAggregator) Handle(ctx context.Context, envelope events.Envelope) error {
	event, err := domain.DecodeEvent(envelope.Type, envelope.Data)
	if err != nil {
		return err
	}

	var balanceDelta decimal.Decimal
	var countDelta int64
	switch e := event.(type) {
	case domain.AccountCreated:
		balanceDelta = e.InitialBalance
		countDelta = 1
	case domain.AccountCredited:
		balanceDelta = e.Amount
	case domain.AccountDebited:
		balanceDelta = e.Amount.Neg()
	default:
		return fmt.Errorf("no aggregation for event type %q", envelope.Type)
	}

	applied, err := a.stats.ApplyOnce(ctx, envelope.AggregateID, envelope.Version, balanceDelta, countDelta)
	if err != nil {
		return err
	}
	if !applied {
		log.Printf("Skipping duplicate %s for account %s at version %d in bank stats", envelope.Type, envelope.AggregateID, envelope.Version)
	}
	return nil
}
