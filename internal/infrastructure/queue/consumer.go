package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	app "github.com/bizadmin/record-import/internal/application/dataimport"
	amqp "github.com/rabbitmq/amqp091-go"
)

// JobHandler processes one job. A non-nil error marks the attempt as failed.
type JobHandler func(ctx context.Context, jobID string) error

// FailHandler finalizes a job whose last attempt failed with reason.
type FailHandler func(ctx context.Context, jobID, reason string) error

const defaultLockedRetryDelay = 60 * time.Second

type ConsumerOption func(*Consumer)

// WithLockedRetryDelay sets how long a delivery for a locked job waits before
// it is tried again. It should be at least the job lock TTL.
func WithLockedRetryDelay(delay time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if delay > 0 {
			c.lockedDelay = delay
		}
	}
}

func WithFailHandler(handler FailHandler) ConsumerOption {
	return func(c *Consumer) {
		c.onExhausted = handler
	}
}

type consumerChannel interface {
	publisher
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Consumer runs jobs from ImportQueue one at a time. Each consumer should
// own its channel so prefetch applies per consumer.
type Consumer struct {
	channel     consumerChannel
	handler     JobHandler
	onExhausted FailHandler
	lockedDelay time.Duration
	logger      *slog.Logger
	name        string
	now         func() time.Time
}

func NewConsumer(channel consumerChannel, handler JobHandler, logger *slog.Logger, name string, opts ...ConsumerOption) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Consumer{
		channel:     channel,
		handler:     handler,
		lockedDelay: defaultLockedRetryDelay,
		logger:      logger.With("consumer", name),
		name:        name,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run blocks until ctx is cancelled or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	deliveries, err := c.channel.Consume(
		ImportQueue,
		c.name,
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer %s: %w", c.name, err)
	}

	c.logger.Info("import consumer started", "queue", ImportQueue)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("import consumer stopping")
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.HandleDelivery(ctx, delivery)
		}
	}
}

// HandleDelivery acks every delivery it settles. A failed attempt with
// attempts left is republished to the retry queue with its backoff as
// expiration; an interrupted attempt is requeued as is. A job locked by
// another worker is retried after the lock delay without using an attempt,
// and the last failed attempt is handed to the fail handler.
func (c *Consumer) HandleDelivery(ctx context.Context, delivery amqp.Delivery) {
	var msg ImportJobMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil || msg.JobID == "" {
		c.logger.Error("invalid import job message", "error", err)
		_ = delivery.Nack(false, false)
		return
	}

	logger := c.logger.With("job_id", msg.JobID, "attempt", msg.Attempt)

	err := c.handler(ctx, msg.JobID)
	if err == nil {
		_ = delivery.Ack(false)
		return
	}

	if ctx.Err() != nil {
		logger.Warn("import job interrupted, requeueing", "error", err)
		_ = delivery.Nack(false, true)
		return
	}

	if errors.Is(err, app.ErrJobLocked) {
		c.scheduleRetry(ctx, delivery, logger, msg, c.lockedDelay, err)
		return
	}

	if msg.Attempt >= msg.MaxAttempts {
		logger.Error("import job attempts exhausted", "error", err)
		if c.onExhausted != nil {
			if failErr := c.onExhausted(ctx, msg.JobID, err.Error()); failErr != nil {
				logger.Error("mark import job failed", "error", failErr)
			}
		}
		_ = delivery.Ack(false)
		return
	}

	next := msg
	next.Attempt++
	c.scheduleRetry(ctx, delivery, logger, next, RetryDelay(time.Duration(msg.BackoffMS)*time.Millisecond, msg.Attempt), err)
}

func (c *Consumer) scheduleRetry(ctx context.Context, delivery amqp.Delivery, logger *slog.Logger, next ImportJobMessage, delay time.Duration, cause error) {
	next.Timestamp = c.now().Unix()

	if pubErr := publishJob(ctx, c.channel, "", ImportRetryQueue, next, strconv.FormatInt(delay.Milliseconds(), 10)); pubErr != nil {
		logger.Error("schedule import job retry failed", "error", pubErr)
		_ = delivery.Nack(false, true)
		return
	}

	logger.Warn("import job attempt failed, retry scheduled", "error", cause, "delay", delay, "next_attempt", next.Attempt)
	_ = delivery.Ack(false)
}
