// Package events consumes schema change events from the Redis stream and
// invalidates the affected cached pages.
package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	infraevents "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/events"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"github.com/redis/go-redis/v9"
)

const (
	blockDuration    = 2 * time.Second
	claimIdleTimeout = 30 * time.Second
	readErrorBackoff = time.Second
	batchSize        = 10
)

// Handler applies one decoded event.
type Handler interface {
	Handle(ctx context.Context, event infraevents.SchemaEvent) error
}

// Consumer reads the schema event stream in a consumer group.
type Consumer struct {
	client     *redis.Client
	consumerID string
	handler    Handler
	log        logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConsumer creates a consumer. Returns nil if client is nil.
func NewConsumer(client *redis.Client, consumerID string, handler Handler, log logger.Logger) *Consumer {
	if client == nil {
		return nil
	}
	if consumerID == "" {
		consumerID = generateConsumerID()
	}
	return &Consumer{
		client:     client,
		consumerID: consumerID,
		handler:    handler,
		log:        log,
	}
}

func generateConsumerID() string {
	const uuidPrefixLength = 8
	return fmt.Sprintf("site-renderer-%s", uuid.New().String()[:uuidPrefixLength])
}

// ConsumerID names this consumer within the group.
func (c *Consumer) ConsumerID() string {
	return c.consumerID
}

// Start creates the group if needed and starts the read and reclaim loops.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureConsumerGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	ctx, c.cancel = context.WithCancel(ctx)

	c.log.Info("Starting schema event consumer",
		logger.String("consumer_id", c.consumerID),
		logger.String("stream", infraevents.StreamName),
		logger.String("group", infraevents.ConsumerGroup),
	)

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.consumeLoop(ctx)
	}()
	go func() {
		defer c.wg.Done()
		c.claimAbandonedLoop(ctx)
	}()

	return nil
}

// Stop cancels both loops and waits for them to return.
func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	for ctx.Err() == nil {
		c.readAndProcess(ctx)
	}
}

func (c *Consumer) readAndProcess(ctx context.Context) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    infraevents.ConsumerGroup,
		Consumer: c.consumerID,
		Streams:  []string{infraevents.StreamName, ">"},
		Count:    batchSize,
		Block:    blockDuration,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return
		}
		c.log.Error("Failed to read from stream", logger.Error(err))
		sleep(ctx, readErrorBackoff)
		return
	}

	for _, stream := range streams {
		for _, msg := range stream.Messages {
			c.processMessage(ctx, msg)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg redis.XMessage) {
	payload, ok := msg.Values[infraevents.PayloadField].(string)
	if !ok {
		c.log.Error("Invalid message format", logger.String("stream_id", msg.ID))
		c.ackMessage(ctx, msg.ID)
		return
	}

	event, err := infraevents.Decode(payload)
	if err != nil {
		c.log.Error("Dropping invalid schema event",
			logger.String("stream_id", msg.ID),
			logger.Error(err),
		)
		c.ackMessage(ctx, msg.ID)
		return
	}

	if handleErr := c.handler.Handle(ctx, event); handleErr != nil {
		c.log.Error("Failed to handle schema event",
			logger.String("event_type", string(event.EventType)),
			logger.String("slug", event.Slug),
			logger.String("stream_id", msg.ID),
			logger.Error(handleErr),
		)
		return // left pending, reclaimed later
	}

	c.ackMessage(ctx, msg.ID)

	c.log.Debug("Processed schema event",
		logger.String("event_type", string(event.EventType)),
		logger.String("slug", event.Slug),
		logger.String("stream_id", msg.ID),
	)
}

func (c *Consumer) ackMessage(ctx context.Context, streamID string) {
	if err := c.client.XAck(ctx, infraevents.StreamName, infraevents.ConsumerGroup, streamID).Err(); err != nil {
		c.log.Error("Failed to ACK message",
			logger.String("stream_id", streamID),
			logger.Error(err),
		)
	}
}

func (c *Consumer) claimAbandonedLoop(ctx context.Context) {
	ticker := time.NewTicker(claimIdleTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.claimAbandonedMessages(ctx)
		}
	}
}

func (c *Consumer) claimAbandonedMessages(ctx context.Context) {
	messages, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   infraevents.StreamName,
		Group:    infraevents.ConsumerGroup,
		Consumer: c.consumerID,
		MinIdle:  claimIdleTimeout,
		Start:    "0-0",
		Count:    batchSize,
	}).Result()
	if err != nil {
		if ctx.Err() == nil {
			c.log.Error("Failed to auto-claim messages", logger.Error(err))
		}
		return
	}

	for _, msg := range messages {
		c.log.Info("Claimed abandoned message", logger.String("stream_id", msg.ID))
		c.processMessage(ctx, msg)
	}
}

func (c *Consumer) ensureConsumerGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, infraevents.StreamName, infraevents.ConsumerGroup, "$").Err()
	if err != nil && !isGroupExistsError(err) {
		return err
	}
	return nil
}

func isGroupExistsError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
