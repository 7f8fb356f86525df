// Package projection holds the read-path consumers: the per-account view
// projector and the bank-wide analytics aggregator. Both consume the same
// event stream independently and both are idempotent under redelivery.
package projection

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/eaglebank/ledger-service/internal/domain"
	"github.com/eaglebank/ledger-service/internal/events"
	"github.com/eaglebank/ledger-service/internal/models"
)

// ErrProjectionOrdering signals that a mutation event arrived before the
// creation event for the same account. The bus guarantees per-aggregate
// order, so this is a fatal condition requiring operator attention; the
// subscriber leaves the message unacknowledged rather than skipping it.
var ErrProjectionOrdering = errors.New("mutation event delivered before account creation")

// AccountViewStore is the keyed read-model storage the projector writes to.
type AccountViewStore interface {
	// Get returns the view for id, or an error wrapping domain.ErrNotFound.
	Get(ctx context.Context, id string) (*models.AccountView, error)
	Upsert(ctx context.Context, view *models.AccountView) error
}

// AccountProjector maintains one AccountView row per aggregate.
type AccountProjector struct {
	views AccountViewStore
}

func NewAccountProjector(views AccountViewStore) *AccountProjector {
	return &AccountProjector{views: views}
}

// Handle applies one delivered event to the account read model. Events at or
// below the view's version watermark are duplicates and are skipped.
func (p *AccountProjector) Handle(ctx context.Context, envelope events.Envelope) error {
	event, err := domain.DecodeEvent(envelope.Type, envelope.Data)
	if err != nil {
		return err
	}

	switch e := event.(type) {
	case domain.AccountCreated:
		existing, err := p.views.Get(ctx, e.ID)
		if err == nil && existing.Version >= envelope.Version {
			log.Printf("Skipping duplicate %s for account %s at version %d", envelope.Type, e.ID, envelope.Version)
			return nil
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return p.views.Upsert(ctx, &models.AccountView{
			ID:        e.ID,
			Balance:   e.InitialBalance,
			Currency:  e.Currency,
			Status:    string(e.Status),
			Version:   envelope.Version,
			CreatedAt: envelope.Timestamp,
			UpdatedAt: envelope.Timestamp,
		})

	case domain.AccountCredited:
		return p.applyDelta(ctx, envelope, e.ID, func(view *models.AccountView) {
			view.Balance = view.Balance.Add(e.Amount)
		})

	case domain.AccountDebited:
		return p.applyDelta(ctx, envelope, e.ID, func(view *models.AccountView) {
			view.Balance = view.Balance.Sub(e.Amount)
		})

	default:
		return fmt.Errorf("no projection for event type %q", envelope.Type)
	}
}

func (p *AccountProjector) applyDelta(ctx context.Context, envelope events.Envelope, id string, mutate func(*models.AccountView)) error {
	view, err := p.views.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %s for account %s at version %d", ErrProjectionOrdering, envelope.Type, id, envelope.Version)
	}
	if err != nil {
		return err
	}

	if envelope.Version <= view.Version {
		log.Printf("Skipping duplicate %s for account %s at version %d (watermark %d)", envelope.Type, id, envelope.Version, view.Version)
		return nil
	}
	if envelope.Version > view.Version+1 {
		// A gap means an earlier event has not been applied yet. Halting here
		// lets the bus redeliver this event once the gap is filled.
		return fmt.Errorf("%w: %s for account %s at version %d (watermark %d)", ErrProjectionOrdering, envelope.Type, id, envelope.Version, view.Version)
	}

	mutate(view)
	view.Version = envelope.Version
	view.UpdatedAt = envelope.Timestamp
	return p.views.Upsert(ctx, view)
}
