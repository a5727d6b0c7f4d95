package queue

import (
	"context"
	"encoding/json"

	"github.com/streadway/amqp"

	"github.com/resto-platform/core/internal/notify"
)

// Publisher enqueues per-channel delivery jobs.
type Publisher struct {
	conn *amqp.Connection
}

func NewPublisher(conn *amqp.Connection) *Publisher {
	return &Publisher{conn: conn}
}

// Enqueue publishes one envelope onto the queue serving the channel. The
// envelope's channel list was fixed at resolution time; the job carries the
// single channel this queue serves.
func (p *Publisher) Enqueue(ctx context.Context, ch notify.Channel, env notify.Envelope) error {
	amqpCh, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer amqpCh.Close()

	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	return amqpCh.Publish(
		Exchange,
		string(ch),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
}
