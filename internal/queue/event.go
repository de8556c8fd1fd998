// Package queue carries background email dispatch over RabbitMQ: the
// message payload, the publisher used by the API and the consumer run by
// the worker process.
package queue

import "time"

// EmailRequestedEvent is published when a client asks for an email to be
// sent. TaskID is handed back to the client so the delivery can be traced
// in the worker logs.
type EmailRequestedEvent struct {
	TaskID      string    `json:"task_id"`
	Email       string    `json:"email"`
	RequestedBy uint64    `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at"`
}
