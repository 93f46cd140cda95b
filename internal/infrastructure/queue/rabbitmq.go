package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	app "github.com/bizadmin/record-import/internal/application/dataimport"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ImportExchange   = "import.exchange"
	ImportQueue      = "import.jobs"
	ImportRoutingKey = "import.jobs"

	// ImportRetryQueue has no consumers. Messages wait there until their
	// per-message expiration and are then dead-lettered back to ImportQueue.
	ImportRetryQueue = "import.jobs.retry"
)

type ImportJobMessage struct {
	JobID       string `json:"job_id"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
	BackoffMS   int64  `json:"backoff_ms"`
	Timestamp   int64  `json:"timestamp"`
}

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// DeclareTopology creates the exchange and both queues. It is idempotent.
func DeclareTopology(channel *amqp.Channel) error {
	if err := channel.ExchangeDeclare(
		ImportExchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare import exchange: %w", err)
	}

	if _, err := channel.QueueDeclare(
		ImportQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare import queue: %w", err)
	}

	if err := channel.QueueBind(ImportQueue, ImportRoutingKey, ImportExchange, false, nil); err != nil {
		return fmt.Errorf("bind import queue: %w", err)
	}

	if _, err := channel.QueueDeclare(
		ImportRetryQueue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    ImportExchange,
			"x-dead-letter-routing-key": ImportRoutingKey,
		},
	); err != nil {
		return fmt.Errorf("declare import retry queue: %w", err)
	}

	return nil
}

type Publisher struct {
	channel publisher
	now     func() time.Time
}

func NewPublisher(channel publisher) *Publisher {
	return &Publisher{channel: channel, now: time.Now}
}

// Enqueue publishes the first attempt of a job.
func (p *Publisher) Enqueue(ctx context.Context, jobID string, opts app.EnqueueOptions) error {
	maxAttempts := opts.Attempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	return publishJob(ctx, p.channel, ImportExchange, ImportRoutingKey, ImportJobMessage{
		JobID:       jobID,
		Attempt:     1,
		MaxAttempts: maxAttempts,
		BackoffMS:   opts.Backoff.Milliseconds(),
		Timestamp:   p.now().Unix(),
	}, "")
}

// publishJob sends msg; a non-empty expiration (milliseconds) bounds how long
// it waits in a consumer-less queue.
func publishJob(ctx context.Context, channel publisher, exchange, key string, msg ImportJobMessage, expiration string) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode import job message: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    fmt.Sprintf("%s-%d", msg.JobID, msg.Attempt),
		Timestamp:    time.Unix(msg.Timestamp, 0),
		Expiration:   expiration,
		Body:         body,
	}

	if err := channel.PublishWithContext(ctx, exchange, key, false, false, publishing); err != nil {
		return fmt.Errorf("publish import job %s: %w", msg.JobID, err)
	}
	return nil
}

// RetryDelay is the wait before the attempt following failedAttempt:
// backoff, 2*backoff, 4*backoff and so on.
func RetryDelay(backoff time.Duration, failedAttempt int) time.Duration {
	if failedAttempt < 1 {
		failedAttempt = 1
	}
	return backoff << (failedAttempt - 1)
}
