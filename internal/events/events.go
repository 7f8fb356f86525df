// Package events carries committed account events from the write path to the
// projectors over Redis Streams. Delivery is at-least-once and ordered per
// stream; both projectors run in their own consumer group.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// AccountEventsStream is the Redis stream all account events are published to.
// A single stream keeps per-aggregate ordering: events are published in commit
// order and Redis Streams preserve insertion order.
const AccountEventsStream = "ledger.account.events"

// Envelope wraps a committed domain event for transport. AggregateID and
// Version identify the event's position in its stream, which projectors use
// as their idempotency watermark under redelivery.
type Envelope struct {
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregateId"`
	Version     int64           `json:"version"`
	Timestamp   time.Time       `json:"timestamp"`
	Data        json.RawMessage `json:"data"`
}

// Publisher delivers committed events to the bus.
type Publisher interface {
	Publish(ctx context.Context, stream string, envelope Envelope) error
}

// Handler processes one delivered envelope. Returning an error leaves the
// message unacknowledged so the bus redelivers it.
type Handler func(ctx context.Context, envelope Envelope) error
