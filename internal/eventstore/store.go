// Package eventstore provides the append-only per-aggregate event log.
//
// Each account has its own ordered stream of events; the stream is the
// single source of truth for the write side. Appends are guarded by an
// optimistic version check: a writer states the version it observed when it
// loaded the stream, and the append fails with ErrConcurrencyConflict if the
// stream has advanced since.
package eventstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"

	"github.com/eaglebank/ledger-service/internal/domain"
)

// ErrConcurrencyConflict is returned when an append's expected version no
// longer matches the stream. Retryable: reload, re-validate, re-append.
var ErrConcurrencyConflict = errors.New("event stream version conflict")

// RecordedEvent is one committed entry in an account's event stream.
// Version starts at 1 and increases by exactly one per event.
type RecordedEvent struct {
	AggregateID string
	Version     int64
	Type        string
	Payload     json.RawMessage
	RecordedAt  time.Time
}

// Store is the durable, ordered, append-only event log contract.
type Store interface {
	// Append commits event as the (expectedVersion+1)-th entry of the
	// aggregate's stream and returns the new version. Returns
	// ErrConcurrencyConflict if another writer appended since the version
	// was observed.
	Append(ctx context.Context, aggregateID string, expectedVersion int64, event domain.Event) (int64, error)

	// Load returns the full event stream for the aggregate in append order.
	// A missing aggregate loads as an empty stream, not an error.
	Load(ctx context.Context, aggregateID string) ([]RecordedEvent, error)
}

// encodeEvent serializes an event payload and computes a sha256 digest over
// its RFC 8785 canonical form. The digest ties the stored row to the exact
// payload bytes independent of JSON key order.
func encodeEvent(event domain.Event) (payload []byte, hash string, err error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal event: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, "", fmt.Errorf("failed to canonicalize event: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return raw, hex.EncodeToString(sum[:]), nil
}

// Decode turns recorded stream entries back into domain events for replay.
func Decode(records []RecordedEvent) ([]domain.Event, error) {
	events := make([]domain.Event, 0, len(records))
	for _, record := range records {
		event, err := domain.DecodeEvent(record.Type, record.Payload)
		if err != nil {
			return nil, fmt.Errorf("stream %s version %d: %w", record.AggregateID, record.Version, err)
		}
		events = append(events, event)
	}
	return events, nil
}
