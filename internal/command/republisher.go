package command

import (
	"context"
	"fmt"
	"log"

	"github.com/eaglebank/ledger-service/internal/events"
	"github.com/eaglebank/ledger-service/internal/eventstore"
)

// EventLog lists every recorded event, in version order per aggregate.
type EventLog interface {
	LoadAll(ctx context.Context) ([]eventstore.RecordedEvent, error)
}

// Republisher replays the event log onto the bus. The log is the source of
// truth and the projectors skip versions they have already applied, so a full
// replay at startup recovers any event whose original publish was dropped
// without delivering anything twice.
type Republisher struct {
	store     EventLog
	publisher events.Publisher
}

func NewRepublisher(store EventLog, publisher events.Publisher) *Republisher {
	return &Republisher{store: store, publisher: publisher}
}

// Run publishes the whole log, stopping on the first bus failure so the next
// run resumes a complete replay.
func (r *Republisher) Run(ctx context.Context) error {
	records, err := r.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load event log for replay: %w", err)
	}

	for _, record := range records {
		envelope := events.Envelope{
			Type:        record.Type,
			AggregateID: record.AggregateID,
			Version:     record.Version,
			Timestamp:   record.RecordedAt,
			Data:        record.Payload,
		}
		if err := r.publisher.Publish(ctx, events.AccountEventsStream, envelope); err != nil {
			return fmt.Errorf("failed to republish %s v%d for %s: %w", record.Type, record.Version, record.AggregateID, err)
		}
	}

	log.Printf("Replayed %d events onto %s", len(records), events.AccountEventsStream)
	return nil
}
