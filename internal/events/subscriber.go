package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreamClient is the slice of the Redis client the subscriber uses.
// *redis.Client satisfies it.
type StreamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// Subscriber reads a stream through a consumer group and feeds each message
// to its handler. A message whose handler fails stays pending and is retried
// before any newer message, so the consumer halts on it rather than skipping
// past it; handlers are therefore required to be idempotent.
type Subscriber struct {
	client        StreamClient
	group         string
	consumer      string
	stream        string
	handler       Handler
	batchSize     int64
	blockDuration time.Duration
	retryDelay    time.Duration
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	RetryDelay    time.Duration
}

func NewSubscriber(client StreamClient, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}

	return &Subscriber{
		client:        client,
		group:         config.Group,
		consumer:      config.Consumer,
		stream:        config.Stream,
		handler:       config.Handler,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
		retryDelay:    config.RetryDelay,
	}
}

// Start consumes the stream until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	log.Printf("Subscriber started: stream=%s, group=%s, consumer=%s", s.stream, s.group, s.consumer)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Subscriber stopping: %s", s.stream)
			return ctx.Err()
		default:
			if err := s.consume(ctx); err != nil {
				log.Printf("Error reading messages: %v", err)
				time.Sleep(s.retryDelay)
			}
		}
	}
}

// consume retries this consumer's pending backlog before asking the stream
// for anything new. The backlog covers both messages whose handler failed and
// messages left unacknowledged by a previous run of this consumer, so a
// restart picks up exactly where the crash left off.
func (s *Subscriber) consume(ctx context.Context) error {
	drained, err := s.readBatch(ctx, "0")
	if err != nil {
		return err
	}
	if !drained {
		time.Sleep(s.retryDelay)
		return nil
	}

	_, err = s.readBatch(ctx, ">")
	return err
}

// readBatch reads one batch at the given cursor ("0" for the pending backlog,
// ">" for new messages) and processes it in stream order. It reports whether
// the batch completed without a handler failure.
func (s *Subscriber) readBatch(ctx context.Context, cursor string) (bool, error) {
	block := s.blockDuration
	if cursor != ">" {
		block = -1 // pending reads return immediately
	}

	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, cursor},
		Count:    s.batchSize,
		Block:    block,
	}).Result()

	if err == redis.Nil {
		return true, nil // no messages
	}
	if err != nil {
		return false, fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			if err := s.processMessage(ctx, message); err != nil {
				// Halt here: the message and everything read after it stay
				// pending and come back on the next backlog read.
				log.Printf("Failed to process message %s on %s: %v", message.ID, s.stream, err)
				return false, nil
			}

			if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
				log.Printf("Failed to ACK message %s: %v", message.ID, err)
			}
		}
	}

	return true, nil
}

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	raw, ok := message.Values["event"].(string)
	if !ok {
		return fmt.Errorf("invalid message format")
	}

	var envelope Envelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	return s.handler(ctx, envelope)
}
