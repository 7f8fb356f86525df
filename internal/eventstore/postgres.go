package eventstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/eaglebank/ledger-service/internal/domain"
)

// uniqueViolation is the PostgreSQL error code raised when an insert hits the
// (aggregate_id, version) primary key — i.e. a concurrent writer won the race.
const uniqueViolation = "23505"

// PostgresStore persists event streams in the account_events table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the event log table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS account_events (
			aggregate_id TEXT        NOT NULL,
			version      BIGINT      NOT NULL,
			event_type   TEXT        NOT NULL,
			payload      JSONB       NOT NULL,
			payload_hash TEXT        NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (aggregate_id, version)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create account_events table: %w", err)
	}
	return nil
}

// Append inserts the event at version expectedVersion+1. The primary key on
// (aggregate_id, version) enforces the optimistic check: two writers racing
// from the same observed version collide on the same key, and the loser gets
// ErrConcurrencyConflict. Callers always derive expectedVersion from Load, so
// version gaps cannot occur.
func (s *PostgresStore) Append(ctx context.Context, aggregateID string, expectedVersion int64, event domain.Event) (int64, error) {
	payload, hash, err := encodeEvent(event)
	if err != nil {
		return 0, err
	}

	newVersion := expectedVersion + 1
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO account_events (aggregate_id, version, event_type, payload, payload_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, aggregateID, newVersion, event.EventType(), payload, hash, time.Now().UTC())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return 0, fmt.Errorf("%w: aggregate %s at version %d", ErrConcurrencyConflict, aggregateID, expectedVersion)
		}
		return 0, fmt.Errorf("failed to append event: %w", err)
	}
	return newVersion, nil
}

// Load returns the aggregate's events in version order.
func (s *PostgresStore) Load(ctx context.Context, aggregateID string) ([]RecordedEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT aggregate_id, version, event_type, payload, created_at
		FROM account_events
		WHERE aggregate_id = $1
		ORDER BY version
	`, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event stream: %w", err)
	}
	return scanRecords(rows)
}

// LoadAll returns every recorded event, in version order per aggregate.
func (s *PostgresStore) LoadAll(ctx context.Context) ([]RecordedEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT aggregate_id, version, event_type, payload, created_at
		FROM account_events
		ORDER BY aggregate_id, version
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load event log: %w", err)
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]RecordedEvent, error) {
	defer rows.Close()

	var records []RecordedEvent
	for rows.Next() {
		var record RecordedEvent
		if err := rows.Scan(&record.AggregateID, &record.Version, &record.Type, &record.Payload, &record.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event stream: %w", err)
	}
	return records, nil
}
