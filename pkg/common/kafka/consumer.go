package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/synaptica-ai/bloodwork/pkg/common/logger"
	"github.com/synaptica-ai/bloodwork/pkg/common/models"
)

// ErrSkip tells the consumer to commit a message without retrying it.
var ErrSkip = errors.New("skip event")

// DeadLetter receives events the handler gave up on.
type DeadLetter interface {
	Publish(ctx context.Context, key string, event models.Event) error
}

type Consumer struct {
	reader     *kafka.Reader
	retry      time.Duration
	attempts   int
	deadLetter DeadLetter
	observe    func(ok bool)
}

type EventHandler func(ctx context.Context, event models.Event) error

func NewConsumer(brokers []string, topic string, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	return &Consumer{reader: reader, retry: time.Second, attempts: 3}
}

// WithDeadLetter routes events that still fail after the last retry to dlq.
func (c *Consumer) WithDeadLetter(dlq DeadLetter) *Consumer {
	c.deadLetter = dlq
	return c
}

// WithObserver registers fn to be called once per handled event with its
// final outcome.
func (c *Consumer) WithObserver(fn func(ok bool)) *Consumer {
	c.observe = fn
	return c
}

// Consume blocks until ctx is cancelled. A failing handler is retried on the
// same message a few times before the message is committed and handed to the
// dead letter sink. Errors wrapping ErrSkip are neither retried nor dead
// lettered.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Log.WithError(err).Error("Failed to fetch message")
			if !sleep(ctx, c.retry) {
				return ctx.Err()
			}
			continue
		}

		var event models.Event
		if err := json.Unmarshal(message.Value, &event); err != nil {
			logger.Log.WithError(err).WithField("offset", message.Offset).Error("Failed to unmarshal event")
			c.commit(ctx, message)
			continue
		}

		err = c.handle(ctx, handler, event)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.settle(ctx, event, err)
		c.commit(ctx, message)
	}
}

// handle returns the handler's final error, or ctx's error when ctx is done
// between attempts.
func (c *Consumer) handle(ctx context.Context, handler EventHandler, event models.Event) error {
	for attempt := 1; ; attempt++ {
		err := handler(ctx, event)
		if err == nil {
			return nil
		}
		entry := logger.WithField("event_id", event.ID).WithField("attempt", attempt).WithError(err)
		if errors.Is(err, ErrSkip) {
			entry.Warn("Skipping event")
			return err
		}
		if attempt >= c.attempts {
			entry.Error("Giving up on event")
			return err
		}
		entry.Warn("Failed to process event, retrying")
		if !sleep(ctx, c.retry) {
			return ctx.Err()
		}
	}
}

// settle records the outcome of a handled event and dead letters it when the
// handler gave up.
func (c *Consumer) settle(ctx context.Context, event models.Event, err error) {
	if c.observe != nil {
		c.observe(err == nil)
	}
	if err == nil || errors.Is(err, ErrSkip) || c.deadLetter == nil {
		return
	}
	if dlqErr := c.deadLetter.Publish(ctx, event.ID, event); dlqErr != nil {
		logger.WithField("event_id", event.ID).WithError(dlqErr).Error("Failed to push event to DLQ")
	}
}

func (c *Consumer) commit(ctx context.Context, message kafka.Message) {
	if err := c.reader.CommitMessages(ctx, message); err != nil {
		logger.Log.WithError(err).Error("Failed to commit message")
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
