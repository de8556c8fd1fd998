package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const maxBackoff = 30 * time.Second

// EmailConsumer drains the email queue. Delivery itself is simulated: each
// message takes SendDelay and ends with an "email sent" log entry.
type EmailConsumer struct {
	url       string
	queue     string
	sendDelay time.Duration
	log       logrus.FieldLogger
}

func NewEmailConsumer(url, queue string, sendDelay time.Duration, log logrus.FieldLogger) *EmailConsumer {
	return &EmailConsumer{url: url, queue: queue, sendDelay: sendDelay, log: log}
}

// Run connects to the broker and consumes until ctx is done. Lost
// connections are re-dialed with exponential backoff capped at 30s. It
// returns ctx.Err() on shutdown.
func (c *EmailConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.WithError(err).WithField("retry_in", backoff.String()).Warn("email-consumer: failed to dial broker")
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.WithError(err).Warn("email-consumer: consume loop ended, reconnecting")
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *EmailConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// one at a time: each delivery blocks for sendDelay
	if err := ch.Qos(1, 0, false); err != nil {
		c.log.WithError(err).Warn("email-consumer: set QoS failed")
	}
	if err := declare(ch, c.queue); err != nil {
		return err
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.log.WithField("queue", c.queue).Info("email-consumer: waiting for messages")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(ctx, d.Body); err != nil {
				c.log.WithError(err).Error("email-consumer: handle message failed")
				// reject without requeue so a poison message cannot spin
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

var errMissingRecipient = errors.New("email event has no recipient")

func (c *EmailConsumer) handleMessage(ctx context.Context, body []byte) error {
	var ev EmailRequestedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if strings.TrimSpace(ev.Email) == "" {
		return errMissingRecipient
	}
	if !sleepCtx(ctx, c.sendDelay) {
		return ctx.Err()
	}
	c.log.WithFields(logrus.Fields{
		"task_id":      ev.TaskID,
		"email":        ev.Email,
		"requested_by": ev.RequestedBy,
	}).Info("email sent")
	return nil
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// sleepCtx waits for d or until ctx is done and reports whether the full
// duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
