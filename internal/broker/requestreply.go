package broker

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// RequestReply publishes a request tagged with a fresh correlation id and
// waits on the shared reply queue for the matching response. The bridge itself
// enforces no timeout: a crashed responder leaves the caller waiting until its
// context is cancelled.
type RequestReply struct {
	conn    *Conn
	logger  *logrus.Logger
	mu      sync.Mutex
	pending map[string]chan []byte
	started bool
}

func NewRequestReply(conn *Conn, logger *logrus.Logger) *RequestReply {
	return &RequestReply{
		conn:    conn,
		logger:  logger,
		pending: make(map[string]chan []byte),
	}
}

// Start consumes the shared reply queue and routes responses to their waiting
// requesters by correlation id. Replies nobody is waiting for are dropped.
func (r *RequestReply) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	r.mu.Unlock()

	if err := r.conn.declare(ReplyQueue); err != nil {
		return err
	}
	msgs, err := r.conn.ch.Consume(ReplyQueue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				r.resolve(msg)
				_ = msg.Ack(false)
			}
		}
	}()
	return nil
}

func (r *RequestReply) resolve(msg amqp.Delivery) {
	r.mu.Lock()
	ch, ok := r.pending[msg.CorrelationId]
	if ok {
		delete(r.pending, msg.CorrelationId)
	}
	r.mu.Unlock()
	if !ok {
		if r.logger != nil {
			r.logger.WithField("correlation_id", msg.CorrelationId).Warn("reply with no pending requester, dropping")
		}
		return
	}
	ch <- msg.Body
}

// Send publishes req on queue and blocks until the correlated reply arrives or
// ctx is cancelled. The reply body is unmarshalled into out.
func (r *RequestReply) Send(ctx context.Context, queue string, req any, out any) error {
	correlationID := uuid.NewString()
	waiter := make(chan []byte, 1)

	r.mu.Lock()
	r.pending[correlationID] = waiter
	r.mu.Unlock()

	raw, err := json.Marshal(req)
	if err != nil {
		r.abandon(correlationID)
		return err
	}
	if err := r.conn.publishRaw(ctx, queue, correlationID, raw); err != nil {
		r.abandon(correlationID)
		return err
	}

	select {
	case <-ctx.Done():
		r.abandon(correlationID)
		return ctx.Err()
	case body := <-waiter:
		return json.Unmarshal(body, out)
	}
}

func (r *RequestReply) abandon(correlationID string) {
	r.mu.Lock()
	delete(r.pending, correlationID)
	r.mu.Unlock()
}
