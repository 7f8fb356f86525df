package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeStreamClient implements consumer-group delivery for a single consumer:
// ">" hands out new entries and marks them pending, "0" replays the unacked
// backlog in stream order, XAck clears an entry.
type fakeStreamClient struct {
	entries   []redis.XMessage
	delivered int
	pending   map[string]bool
}

func newFakeStreamClient(entries ...redis.XMessage) *fakeStreamClient {
	return &fakeStreamClient{entries: entries, pending: make(map[string]bool)}
}

func (f *fakeStreamClient) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeStreamClient) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	cmd := redis.NewXStreamSliceCmd(ctx)

	var batch []redis.XMessage
	switch a.Streams[len(a.Streams)-1] {
	case ">":
		for f.delivered < len(f.entries) && int64(len(batch)) < a.Count {
			message := f.entries[f.delivered]
			f.pending[message.ID] = true
			batch = append(batch, message)
			f.delivered++
		}
		if len(batch) == 0 {
			cmd.SetErr(redis.Nil)
			return cmd
		}
	default:
		for _, message := range f.entries[:f.delivered] {
			if f.pending[message.ID] && int64(len(batch)) < a.Count {
				batch = append(batch, message)
			}
		}
	}

	cmd.SetVal([]redis.XStream{{Stream: a.Streams[0], Messages: batch}})
	return cmd
}

func (f *fakeStreamClient) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	for _, id := range ids {
		delete(f.pending, id)
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(ids)))
	return cmd
}

func entry(id string, version int64) redis.XMessage {
	envelope := Envelope{
		Type:        "account.credited",
		AggregateID: "acc-1",
		Version:     version,
		Timestamp:   time.Now().UTC(),
		Data:        json.RawMessage(`{}`),
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		panic(err)
	}
	return redis.XMessage{ID: id, Values: map[string]interface{}{"event": string(raw)}}
}

func TestFailedMessageIsRedeliveredBeforeNewerOnes(t *testing.T) {
	ctx := context.Background()
	client := newFakeStreamClient(entry("1-0", 1), entry("2-0", 2))

	var applied []int64
	failures := 1
	subscriber := NewSubscriber(client, SubscriberConfig{
		Group:    "test-group",
		Consumer: "test-consumer",
		Stream:   AccountEventsStream,
		Handler: func(ctx context.Context, envelope Envelope) error {
			if envelope.Version == 1 && failures > 0 {
				failures--
				return errors.New("transient projection failure")
			}
			applied = append(applied, envelope.Version)
			return nil
		},
		RetryDelay: time.Millisecond,
	})

	// First pass: the backlog is empty, the new batch halts on version 1.
	if err := subscriber.consume(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("nothing may be applied past a failed message, got %v", applied)
	}
	if !client.pending["1-0"] || !client.pending["2-0"] {
		t.Fatal("both messages must stay pending after the halt")
	}

	// Second pass: the backlog replays version 1 first, then version 2.
	if err := subscriber.consume(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(applied) != 2 || applied[0] != 1 || applied[1] != 2 {
		t.Fatalf("expected versions [1 2] applied in order, got %v", applied)
	}
	if len(client.pending) != 0 {
		t.Fatalf("expected all messages acked, %d still pending", len(client.pending))
	}
}

func TestBacklogFromPreviousRunIsDrainedFirst(t *testing.T) {
	ctx := context.Background()
	client := newFakeStreamClient(entry("1-0", 1), entry("2-0", 2), entry("3-0", 3))

	// Versions 1 and 2 were delivered before a crash and never acked.
	client.delivered = 2
	client.pending["1-0"] = true
	client.pending["2-0"] = true

	var applied []int64
	subscriber := NewSubscriber(client, SubscriberConfig{
		Group:    "test-group",
		Consumer: "test-consumer",
		Stream:   AccountEventsStream,
		Handler: func(ctx context.Context, envelope Envelope) error {
			applied = append(applied, envelope.Version)
			return nil
		},
		RetryDelay: time.Millisecond,
	})

	if err := subscriber.consume(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(applied) != "[1 2 3]" {
		t.Fatalf("expected pending versions before new ones, got %v", applied)
	}
	if len(client.pending) != 0 {
		t.Fatalf("expected all messages acked, %d still pending", len(client.pending))
	}
}
