package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/eaglebank/ledger-service/internal/cqrs"
	"github.com/eaglebank/ledger-service/internal/domain"
	"github.com/eaglebank/ledger-service/internal/events"
	"github.com/eaglebank/ledger-service/internal/eventstore"
)

// maxAttempts bounds the reload-and-retry cycle on version conflicts.
const maxAttempts = 3

// publishAttempts bounds the retries of a failed publish before the event is
// left to the startup replay of the log.
const (
	publishAttempts   = 3
	publishRetryDelay = 100 * time.Millisecond
)

// AccountCommandService drives the write path: it loads an account's event
// history, reconstructs state, validates the command, and appends the
// resulting event under the optimistic version observed at load. Committed
// events are published to the bus for the projectors.
type AccountCommandService struct {
	store     eventstore.Store
	publisher events.Publisher
}

func NewAccountCommandService(store eventstore.Store, publisher events.Publisher) *AccountCommandService {
	return &AccountCommandService{store: store, publisher: publisher}
}

// CreateAccount opens a new account and returns its server-generated id.
func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (string, error) {
	id := uuid.NewString()
	if err := s.execute(ctx, domain.CreateAccount{
		ID:             id,
		InitialBalance: cmd.InitialBalance,
		Currency:       cmd.Currency,
	}, false); err != nil {
		return "", err
	}
	return id, nil
}

// CreditAccount adds funds to an existing account and echoes its id.
func (s *AccountCommandService) CreditAccount(ctx context.Context, cmd cqrs.CreditAccountCommand) (string, error) {
	if err := s.execute(ctx, domain.Credit{
		ID:       cmd.ID,
		Amount:   cmd.Amount,
		Currency: cmd.Currency,
	}, true); err != nil {
		return "", err
	}
	return cmd.ID, nil
}

// DebitAccount withdraws funds from an existing account and echoes its id.
func (s *AccountCommandService) DebitAccount(ctx context.Context, cmd cqrs.DebitAccountCommand) (string, error) {
	if err := s.execute(ctx, domain.Debit{
		ID:       cmd.ID,
		Amount:   cmd.Amount,
		Currency: cmd.Currency,
	}, true); err != nil {
		return "", err
	}
	return cmd.ID, nil
}

// execute runs the load–reconstruct–decide–append cycle. On a version
// conflict the whole cycle restarts from a fresh load, up to maxAttempts.
// Exactly one event is appended per successful command, zero on rejection.
func (s *AccountCommandService) execute(ctx context.Context, cmd domain.Command, mustExist bool) error {
	id := cmd.TargetID()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		records, err := s.store.Load(ctx, id)
		if err != nil {
			return err
		}
		if mustExist && len(records) == 0 {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}

		history, err := eventstore.Decode(records)
		if err != nil {
			return err
		}

		event, err := domain.Decide(domain.Reconstruct(history), cmd)
		if err != nil {
			return err
		}

		newVersion, err := s.store.Append(ctx, id, int64(len(records)), event)
		if errors.Is(err, eventstore.ErrConcurrencyConflict) {
			log.Printf("Version conflict on account %s (attempt %d/%d), retrying", id, attempt, maxAttempts)
			lastErr = err
			continue
		}
		if err != nil {
			return err
		}

		s.publish(ctx, event, newVersion)
		return nil
	}
	return lastErr
}

// publish hands the committed event to the bus, retrying transient failures.
// Failures are logged, not returned: the event is durably in the log and the
// command succeeded; the next log replay delivers anything dropped here.
func (s *AccountCommandService) publish(ctx context.Context, event domain.Event, version int64) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %s event for %s: %v", event.EventType(), event.AggregateID(), err)
		return
	}

	envelope := events.Envelope{
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Version:     version,
		Timestamp:   time.Now().UTC(),
		Data:        data,
	}
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		err := s.publisher.Publish(ctx, events.AccountEventsStream, envelope)
		if err == nil {
			return
		}
		log.Printf("Failed to publish %s event for %s (attempt %d/%d): %v",
			envelope.Type, envelope.AggregateID, attempt, publishAttempts, err)
		if attempt < publishAttempts {
			time.Sleep(publishRetryDelay)
		}
	}
	log.Printf("Giving up on publishing %s v%d for %s; the event stays in the log for replay",
		envelope.Type, envelope.Version, envelope.AggregateID)
}
