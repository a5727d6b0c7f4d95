package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/resto-platform/core/internal/notify"
)

// Processor handles one decoded delivery job.
type Processor interface {
	Process(ctx context.Context, env notify.Envelope) error
}

// attemptsHeader carries the failed-attempt count across redeliveries. A plain
// broker requeue does not touch message headers, so the consumer re-publishes
// failed jobs itself with the incremented count.
const attemptsHeader = "x-attempts"

// Consumer drains one channel's queue with a worker pool. Jobs that keep
// failing are dead-lettered after maxDeliveries attempts.
type Consumer struct {
	conn          *amqp.Connection
	channel       notify.Channel
	processor     Processor
	prefetch      int
	workerCount   int
	maxDeliveries int
	logger        *slog.Logger
}

func NewConsumer(conn *amqp.Connection, channel notify.Channel, processor Processor, prefetch, workerCount, maxDeliveries int, logger *slog.Logger) *Consumer {
	if prefetch <= 0 {
		prefetch = 50
	}
	if workerCount <= 0 {
		workerCount = 5
	}
	if maxDeliveries <= 0 {
		maxDeliveries = 5
	}
	return &Consumer{
		conn:          conn,
		channel:       channel,
		processor:     processor,
		prefetch:      prefetch,
		workerCount:   workerCount,
		maxDeliveries: maxDeliveries,
		logger:        logger,
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("qos configuration failed: %w", err)
	}

	deliveries, err := ch.Consume(
		QueueFor(c.channel),
		"",
		false, // autoAck
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for i := 0; i < c.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-deliveries:
					if !ok {
						return
					}
					c.handle(ctx, ch, msg)
				}
			}
		}()
	}

	<-ctx.Done()
	wg.Wait()
	return nil
}

func (c *Consumer) handle(ctx context.Context, ch *amqp.Channel, msg amqp.Delivery) {
	var env notify.Envelope
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		c.logger.Error("failed to unmarshal delivery job",
			slog.String("queue", QueueFor(c.channel)),
			slog.Any("error", err))
		_ = msg.Reject(false)
		return
	}

	if err := c.processor.Process(ctx, env); err != nil {
		attempts := deliveryAttempts(&msg) + 1
		if attempts >= c.maxDeliveries {
			c.logger.Error("delivery failed, job dead-lettered",
				slog.String("request_id", env.RequestID),
				slog.String("channel", string(c.channel)),
				slog.Int("attempts", attempts),
				slog.Any("error", err))
			_ = msg.Nack(false, false)
			return
		}

		c.logger.Warn("delivery failed, job requeued",
			slog.String("request_id", env.RequestID),
			slog.String("channel", string(c.channel)),
			slog.Int("attempts", attempts),
			slog.Any("error", err))
		if pubErr := c.republish(ch, msg, attempts); pubErr != nil {
			// Broker-level requeue loses the attempt count but keeps the job.
			c.logger.Error("failed to republish delivery job",
				slog.String("request_id", env.RequestID),
				slog.Any("error", pubErr))
			_ = msg.Nack(false, true)
			return
		}
		_ = msg.Ack(false)
		return
	}

	_ = msg.Ack(false)
}

// republish puts the failed job back on its own queue with the attempt count
// stamped into the headers.
func (c *Consumer) republish(ch *amqp.Channel, msg amqp.Delivery, attempts int) error {
	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[attemptsHeader] = int32(attempts)

	return ch.Publish(
		Exchange,
		string(c.channel),
		false,
		false,
		amqp.Publishing{
			ContentType:  msg.ContentType,
			DeliveryMode: amqp.Persistent,
			Headers:      headers,
			Body:         msg.Body,
		})
}

func deliveryAttempts(msg *amqp.Delivery) int {
	if msg.Headers != nil {
		switch v := msg.Headers[attemptsHeader].(type) {
		case int32:
			return int(v)
		case int64:
			return int(v)
		case int:
			return v
		}
		if raw, ok := msg.Headers["x-death"]; ok {
			if deaths, ok := raw.([]interface{}); ok && len(deaths) > 0 {
				if table, ok := deaths[0].(amqp.Table); ok {
					if count, ok := table["count"].(int64); ok {
						return int(count)
					}
				}
			}
		}
	}
	if msg.Redelivered {
		return 1
	}
	return 0
}
