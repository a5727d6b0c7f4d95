package queue

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/resto-platform/core/internal/notify"
)

// Exchange is the direct exchange all delivery jobs go through; the routing
// key is the logical channel name.
const Exchange = "deliveries.direct"

// DeadLetterQueue collects jobs that exhausted their delivery attempts.
const DeadLetterQueue = "deliveries.failed"

// QueueFor names the queue serving one delivery channel.
func QueueFor(ch notify.Channel) string {
	return string(ch) + ".queue"
}

// Manager maintains a single AMQP connection and declares the delivery
// topology.
type Manager struct {
	url    string
	conn   *amqp.Connection
	logger *slog.Logger
	mu     sync.RWMutex
}

func NewManager(url string, logger *slog.Logger) (*Manager, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return &Manager{
		url:    url,
		conn:   conn,
		logger: logger,
	}, nil
}

func (m *Manager) Connection() *amqp.Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	return err
}

// DeclareTopology ensures the exchange, one queue per delivery channel, and
// the dead letter queue exist before anything is published.
func (m *Manager) DeclareTopology(channels []notify.Channel) error {
	ch, err := m.Connection().Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(
		DeadLetterQueue,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("declare dlq: %w", err)
	}

	for _, dch := range channels {
		queue := QueueFor(dch)
		args := amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": DeadLetterQueue,
		}

		if _, err := ch.QueueDeclare(
			queue,
			true,
			false,
			false,
			false,
			args,
		); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		if err := ch.QueueBind(
			queue,
			string(dch),
			Exchange,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}
