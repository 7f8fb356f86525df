package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eaglebank/ledger-service/internal/models"
	"github.com/eaglebank/ledger-service/internal/projection"
)

// BankStatsRepository stores the singleton bank-wide rollup plus the
// per-aggregate watermarks that make its updates exactly-once.
type BankStatsRepository struct {
	db *sql.DB
}

func NewBankStatsRepository(db *sql.DB) *BankStatsRepository {
	return &BankStatsRepository{db: db}
}

// ApplyOnce advances the aggregate's watermark to version and applies the
// deltas to the rollup in a single transaction. The watermark row is locked
// for the duration, so concurrent redeliveries serialize here. Returns false
// without touching the rollup when the event was already applied.
func (r *BankStatsRepository) ApplyOnce(ctx context.Context, aggregateID string, version int64, balanceDelta decimal.Decimal, countDelta int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin stats transaction: %w", err)
	}
	defer tx.Rollback()

	var watermark int64
	err = tx.QueryRowContext(ctx, `
		SELECT version FROM stats_watermarks WHERE aggregate_id = $1 FOR UPDATE
	`, aggregateID).Scan(&watermark)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to read stats watermark: %w", err)
	}
	if watermark >= version {
		return false, nil
	}
	if version > watermark+1 {
		return false, fmt.Errorf("%w: bank stats for aggregate %s at version %d (watermark %d)", projection.ErrProjectionOrdering, aggregateID, version, watermark)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stats_watermarks (aggregate_id, version)
		VALUES ($1, $2)
		ON CONFLICT (aggregate_id) DO UPDATE SET version = EXCLUDED.version
	`, aggregateID, version)
	if err != nil {
		return false, fmt.Errorf("failed to advance stats watermark: %w", err)
	}

	// The rollup row is created by the first event applied.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO bank_stats (id, total_balance, account_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			total_balance = bank_stats.total_balance + EXCLUDED.total_balance,
			account_count = bank_stats.account_count + EXCLUDED.account_count
	`, projection.StatsID, balanceDelta, countDelta)
	if err != nil {
		return false, fmt.Errorf("failed to update bank stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit stats update: %w", err)
	}
	return true, nil
}

// GetStats returns the rollup. Before any event has been applied the row does
// not exist yet; that reads as zero stats, not an error.
func (r *BankStatsRepository) GetStats(ctx context.Context) (*models.BankStatsView, error) {
	var stats models.BankStatsView
	err := r.db.QueryRowContext(ctx, `
		SELECT total_balance, account_count FROM bank_stats WHERE id = $1
	`, projection.StatsID).Scan(&stats.TotalBalance, &stats.AccountCount)
	if err == sql.ErrNoRows {
		return &models.BankStatsView{TotalBalance: decimal.Zero}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bank stats: %w", err)
	}
	return &stats, nil
}
