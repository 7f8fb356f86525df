package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the read-model tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id         TEXT        PRIMARY KEY,
			balance    NUMERIC     NOT NULL,
			currency   TEXT        NOT NULL,
			status     TEXT        NOT NULL,
			version    BIGINT      NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bank_stats (
			id            TEXT    PRIMARY KEY,
			total_balance NUMERIC NOT NULL,
			account_count BIGINT  NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS stats_watermarks (
			aggregate_id TEXT   PRIMARY KEY,
			version      BIGINT NOT NULL
		)`,
	}
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to create read-model schema: %w", err)
		}
	}
	return nil
}
