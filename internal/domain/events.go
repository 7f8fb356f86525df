package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Event type tags, persisted alongside each payload in the event log and
// carried on the bus envelope.
const (
	EventAccountCreated  = "account.created"
	EventAccountCredited = "account.credited"
	EventAccountDebited  = "account.debited"
)

// Event is an immutable fact about one account. Events are the only
// persisted truth on the write side; aggregate state is derived from them.
type Event interface {
	EventType() string
	AggregateID() string
}

type AccountCreated struct {
	ID             string          `json:"id"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Currency       string          `json:"currency"`
	Status         Status          `json:"status"`
}

func (e AccountCreated) EventType() string   { return EventAccountCreated }
func (e AccountCreated) AggregateID() string { return e.ID }

type AccountCredited struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (e AccountCredited) EventType() string   { return EventAccountCredited }
func (e AccountCredited) AggregateID() string { return e.ID }

type AccountDebited struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (e AccountDebited) EventType() string   { return EventAccountDebited }
func (e AccountDebited) AggregateID() string { return e.ID }

// DecodeEvent turns a persisted (type tag, payload) pair back into its
// concrete event variant. Every tag in the log must decode here; an unknown
// tag is a corruption signal, not something to skip.
func DecodeEvent(eventType string, payload []byte) (Event, error) {
	switch eventType {
	case EventAccountCreated:
		var e AccountCreated
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s event: %w", eventType, err)
		}
		return e, nil
	case EventAccountCredited:
		var e AccountCredited
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s event: %w", eventType, err)
		}
		return e, nil
	case EventAccountDebited:
		var e AccountDebited
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s event: %w", eventType, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}
