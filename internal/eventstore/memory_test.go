package eventstore

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/eaglebank/ledger-service/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestMemoryStoreAppendAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	v1, err := store.Append(ctx, "acc-1", 0, domain.AccountCreated{
		ID: "acc-1", InitialBalance: dec("100"), Currency: "USD", Status: domain.StatusActive,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v1 != 1 {
		t.Fatalf("expected version 1, got %d", v1)
	}

	v2, err := store.Append(ctx, "acc-1", 1, domain.AccountCredited{ID: "acc-1", Amount: dec("50"), Currency: "USD"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v2 != 2 {
		t.Fatalf("expected version 2, got %d", v2)
	}

	records, err := store.Load(ctx, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for i, record := range records {
		if record.Version != int64(i+1) {
			t.Errorf("record %d has version %d", i, record.Version)
		}
		if record.AggregateID != "acc-1" {
			t.Errorf("record %d has aggregate id %s", i, record.AggregateID)
		}
	}
	if records[0].Type != domain.EventAccountCreated || records[1].Type != domain.EventAccountCredited {
		t.Errorf("unexpected event types: %s, %s", records[0].Type, records[1].Type)
	}
}

func TestMemoryStoreStaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Append(ctx, "acc-1", 0, domain.AccountCreated{
		ID: "acc-1", InitialBalance: dec("100"), Currency: "USD", Status: domain.StatusActive,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A writer that observed version 0 before the create committed.
	_, err := store.Append(ctx, "acc-1", 0, domain.AccountCredited{ID: "acc-1", Amount: dec("10"), Currency: "USD"})
	if !errors.Is(err, ErrConcurrencyConflict) {
		t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
	}

	records, _ := store.Load(ctx, "acc-1")
	if len(records) != 1 {
		t.Fatalf("conflicting append must not be recorded, stream has %d events", len(records))
	}
}

func TestMemoryStoreLoadUnknownAggregateIsEmpty(t *testing.T) {
	store := NewMemoryStore()
	records, err := store.Load(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty stream, got %d records", len(records))
	}
}

func TestDecodeRecordedStream(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.Append(ctx, "acc-1", 0, domain.AccountCreated{
		ID: "acc-1", InitialBalance: dec("100"), Currency: "USD", Status: domain.StatusActive,
	})
	store.Append(ctx, "acc-1", 1, domain.AccountDebited{ID: "acc-1", Amount: dec("40"), Currency: "USD"})

	records, _ := store.Load(ctx, "acc-1")
	events, err := Decode(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := domain.Reconstruct(events)
	if !state.Balance.Equal(dec("60")) {
		t.Errorf("expected balance 60 after replay, got %s", state.Balance)
	}
	if state.Status != domain.StatusActive {
		t.Errorf("expected ACTIVE, got %s", state.Status)
	}
}
