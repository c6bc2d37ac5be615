package broker

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Handler consumes one fire-and-forget message from the named queue.
type Handler func(ctx context.Context, queue string, body []byte) error

// ReplyHandler answers one request/reply message; its return value is
// serialized and published back on the shared reply queue.
type ReplyHandler func(ctx context.Context, body []byte) (any, error)

// RegistrationFunc binds queue names to handlers. Each feature contributes
// one; all of them run before consumption begins.
type RegistrationFunc func(r *Registry) error

// Registry maps queue names to handlers. Registration and consumption are two
// distinct, sequential phases: Apply everything, then start the consumer.
type Registry struct {
	handlers      map[string]Handler
	replyHandlers map[string]ReplyHandler
	logger        *logrus.Logger
}

func NewRegistry(logger *logrus.Logger) *Registry {
	return &Registry{
		handlers:      make(map[string]Handler),
		replyHandlers: make(map[string]ReplyHandler),
		logger:        logger,
	}
}

func (r *Registry) Register(queue string, h Handler) {
	r.handlers[queue] = h
}

func (r *Registry) RegisterRequestReply(queue string, h ReplyHandler) {
	r.replyHandlers[queue] = h
}

// Apply executes the registration functions in order.
func (r *Registry) Apply(funcs ...RegistrationFunc) error {
	for _, f := range funcs {
		if err := f(r); err != nil {
			return err
		}
	}
	return nil
}

// Dispatch routes an inbound message to the matching handler. Messages for
// unregistered queues are logged and dropped; there is no dead-lettering.
func (r *Registry) Dispatch(ctx context.Context, queue string, body []byte) error {
	h, ok := r.handlers[queue]
	if !ok {
		if r.logger != nil {
			r.logger.WithField("queue", queue).Warn("no consumer registered for queue, dropping message")
		}
		return nil
	}
	return h(ctx, queue, body)
}

// Consumer drains every registered queue on one connection, acking handled
// messages and requeueing failures.
type Consumer struct {
	conn     *Conn
	registry *Registry
	logger   *logrus.Logger
}

func NewConsumer(conn *Conn, registry *Registry, logger *logrus.Logger) *Consumer {
	return &Consumer{conn: conn, registry: registry, logger: logger}
}

// Start begins consumption of all registered queues. It must only be called
// once registration is complete; consumers run until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.conn.ch.Qos(16, 0, false); err != nil {
		return err
	}

	for queue := range c.registry.handlers {
		if err := c.startQueue(ctx, queue, false); err != nil {
			return err
		}
	}
	for queue := range c.registry.replyHandlers {
		if err := c.startQueue(ctx, queue, true); err != nil {
			return err
		}
	}
	return nil
}

func (c *Consumer) startQueue(ctx context.Context, queue string, requestReply bool) error {
	if err := c.conn.declare(queue); err != nil {
		return err
	}
	msgs, err := c.conn.ch.Consume(queue, "", false, false, false, false, nil)
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
				if requestReply {
					c.handleRequestReply(ctx, queue, msg.CorrelationId, msg.Body)
					_ = msg.Ack(false)
					continue
				}
				if err := c.registry.Dispatch(ctx, queue, msg.Body); err != nil {
					c.logger.WithError(err).WithField("queue", queue).Error("consumer handler failed")
					_ = msg.Nack(false, true)
					continue
				}
				_ = msg.Ack(false)
			}
		}
	}()

	c.logger.WithField("queue", queue).Info("consumer started")
	return nil
}

func (c *Consumer) handleRequestReply(ctx context.Context, queue, correlationID string, body []byte) {
	h := c.registry.replyHandlers[queue]
	resp, err := h(ctx, body)
	if err != nil {
		c.logger.WithError(err).WithField("queue", queue).Error("request/reply handler failed")
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		c.logger.WithError(err).WithField("queue", queue).Error("serialize reply failed")
		return
	}
	if err := c.conn.publishRaw(ctx, ReplyQueue, correlationID, raw); err != nil {
		c.logger.WithError(err).WithField("queue", queue).Error("publish reply failed")
	}
}
