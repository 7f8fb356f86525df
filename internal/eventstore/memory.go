package eventstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/eaglebank/ledger-service/internal/domain"
)

// MemoryStore is an in-process Store with the same append semantics as the
// PostgreSQL implementation. Used in tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	streams map[string][]RecordedEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{streams: make(map[string][]RecordedEvent)}
}

func (s *MemoryStore) Append(ctx context.Context, aggregateID string, expectedVersion int64, event domain.Event) (int64, error) {
	payload, _, err := encodeEvent(event)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := int64(len(s.streams[aggregateID]))
	if current != expectedVersion {
		return 0, fmt.Errorf("%w: aggregate %s at version %d, stream at %d", ErrConcurrencyConflict, aggregateID, expectedVersion, current)
	}

	record := RecordedEvent{
		AggregateID: aggregateID,
		Version:     expectedVersion + 1,
		Type:        event.EventType(),
		Payload:     payload,
		RecordedAt:  time.Now().UTC(),
	}
	s.streams[aggregateID] = append(s.streams[aggregateID], record)
	return record.Version, nil
}

func (s *MemoryStore) Load(ctx context.Context, aggregateID string) ([]RecordedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream := s.streams[aggregateID]
	records := make([]RecordedEvent, len(stream))
	copy(records, stream)
	return records, nil
}

// LoadAll returns every recorded event, in version order per aggregate.
func (s *MemoryStore) LoadAll(ctx context.Context) ([]RecordedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.streams))
	for id := range s.streams {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var records []RecordedEvent
	for _, id := range ids {
		records = append(records, s.streams[id]...)
	}
	return records, nil
}
