package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/apperr"
)

// Publisher sends EmailRequestedEvent messages to a durable queue. It dials
// per publish; email requests are rare enough that a pooled connection is
// not worth its reconnect handling.
type Publisher struct {
	url   string
	queue string
	log   logrus.FieldLogger
}

func NewPublisher(url, queue string, log logrus.FieldLogger) *Publisher {
	return &Publisher{url: url, queue: queue, log: log}
}

// PublishEmailRequested publishes ev as a persistent JSON message. Broker
// failures are logged and returned wrapped in apperr.ErrDependencyUnavailable.
func (p *Publisher) PublishEmailRequested(ctx context.Context, ev EmailRequestedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal email event: %w", err)
	}
	if err := p.publish(ctx, body); err != nil {
		p.log.WithError(err).WithField("task_id", ev.TaskID).Error("rabbitmq: publish email request failed")
		return fmt.Errorf("%w: %v", apperr.ErrDependencyUnavailable, err)
	}
	p.log.WithFields(logrus.Fields{"task_id": ev.TaskID, "queue": p.queue}).Info("email request queued")
	return nil
}

func (p *Publisher) publish(ctx context.Context, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout(ctx)),
	})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, p.queue); err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

const defaultDialTimeout = 5 * time.Second

// dialTimeout bounds the broker dial by ctx's deadline, since amqp does not
// take a context when connecting.
func dialTimeout(ctx context.Context) time.Duration {
	dl, ok := ctx.Deadline()
	if !ok {
		return defaultDialTimeout
	}
	return max(time.Until(dl), time.Millisecond)
}

// declare makes sure the durable queue exists. It is idempotent and shared
// by publisher and consumer so both agree on the queue arguments.
func declare(ch *amqp.Channel, name string) error {
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}
