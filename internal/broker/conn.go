// Package broker extends the in-process notification fabric across process
// boundaries over RabbitMQ: fire-and-forget queues keyed by name, and a
// correlation-id request/reply pattern over a shared reply queue.
package broker

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ReplyQueue is the shared destination request/reply responses travel on;
// requesters filter it by correlation id.
const ReplyQueue = "reply_queue"

// Conn wraps one AMQP connection and channel. Producers and consumers in a
// process share it.
type Conn struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func Dial(url string) (*Conn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Conn{conn: conn, ch: ch}, nil
}

func (c *Conn) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *Conn) declare(queue string) error {
	_, err := c.ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	return err
}

// Publish asserts the durable queue and sends a persistent JSON message on it.
func (c *Conn) Publish(ctx context.Context, queue string, body any) error {
	if err := c.declare(queue); err != nil {
		return err
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         b,
		},
	)
}

// publishRaw is used by the request/reply responder, which must echo the
// correlation id of the request it answers.
func (c *Conn) publishRaw(ctx context.Context, queue, correlationID string, body []byte) error {
	if err := c.declare(queue); err != nil {
		return err
	}
	return c.ch.PublishWithContext(ctx,
		"",
		queue,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			CorrelationId: correlationID,
			ReplyTo:       ReplyQueue,
			Timestamp:     time.Now().UTC(),
			Body:          body,
		},
	)
}
