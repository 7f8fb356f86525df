package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/eaglebank/ledger-service/internal/domain"
	"github.com/eaglebank/ledger-service/internal/models"
	ledgerredis "github.com/eaglebank/ledger-service/internal/redis"
)

const accountViewKeyPrefix = "account:view:"

// accountCacheEntry is the internal Redis representation of an account view.
// Unlike models.AccountView it serialises Version, so a cache hit preserves
// the projector's idempotency watermark.
type accountCacheEntry struct {
	ID        string          `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"createdTimestamp"`
	UpdatedAt time.Time       `json:"updatedTimestamp"`
}

// AccountViewRepository stores the per-account read model. PostgreSQL is the
// durable store; Redis is a write-through cache warmed on every upsert and on
// cold reads.
type AccountViewRepository struct {
	db    *sql.DB
	cache *ledgerredis.ViewCache[accountCacheEntry]
}

func NewAccountViewRepository(db *sql.DB, redisClient *goredis.Client) *AccountViewRepository {
	return &AccountViewRepository{
		db:    db,
		cache: ledgerredis.NewViewCache[accountCacheEntry](redisClient, 0),
	}
}

func entryToView(e *accountCacheEntry) *models.AccountView {
	return &models.AccountView{
		ID:        e.ID,
		Balance:   e.Balance,
		Currency:  e.Currency,
		Status:    e.Status,
		Version:   e.Version,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func viewToEntry(v *models.AccountView) *accountCacheEntry {
	return &accountCacheEntry{
		ID:        v.ID,
		Balance:   v.Balance,
		Currency:  v.Currency,
		Status:    v.Status,
		Version:   v.Version,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

// Get returns one account view, trying Redis first then PostgreSQL.
func (r *AccountViewRepository) Get(ctx context.Context, id string) (*models.AccountView, error) {
	if entry, ok := r.cache.Get(ctx, accountViewKeyPrefix+id); ok {
		return entryToView(entry), nil
	}

	query := `
		SELECT id, balance, currency, status, version, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	var view models.AccountView
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&view.ID, &view.Balance, &view.Currency, &view.Status,
		&view.Version, &view.CreatedAt, &view.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account view: %w", err)
	}

	// Warm the cache
	r.cache.Set(ctx, accountViewKeyPrefix+id, viewToEntry(&view))
	return &view, nil
}

// List returns all account views from PostgreSQL.
func (r *AccountViewRepository) List(ctx context.Context) ([]models.AccountView, error) {
	query := `
		SELECT id, balance, currency, status, version, created_at, updated_at
		FROM accounts
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list account views: %w", err)
	}
	defer rows.Close()

	var views []models.AccountView
	for rows.Next() {
		var view models.AccountView
		if err := rows.Scan(
			&view.ID, &view.Balance, &view.Currency, &view.Status,
			&view.Version, &view.CreatedAt, &view.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account view: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read account views: %w", err)
	}
	return views, nil
}

// Upsert writes the view row and refreshes the cache. Called only by the
// account projector; command handlers never touch read-model rows.
func (r *AccountViewRepository) Upsert(ctx context.Context, view *models.AccountView) error {
	query := `
		INSERT INTO accounts (id, balance, currency, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			balance = EXCLUDED.balance,
			status = EXCLUDED.status,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		view.ID, view.Balance, view.Currency, view.Status,
		view.Version, view.CreatedAt, view.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert account view: %w", err)
	}

	r.cache.Set(ctx, accountViewKeyPrefix+view.ID, viewToEntry(view))
	return nil
}
