package mq

import (
	"context"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one delivery. A nil return acks the message; an
// error nacks it back onto the queue.
type Handler func(ctx context.Context, d amqp.Delivery) error

type Consumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	name  string
}

func NewConsumer(url, queue, consumerName string, bindings map[string][]string) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	for exchange, keys := range bindings {
		if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
		for _, rk := range keys {
			if err := ch.QueueBind(q.Name, rk, exchange, false, nil); err != nil {
				_ = ch.Close()
				_ = conn.Close()
				return nil, fmt.Errorf("bind %s to %s: %w", rk, exchange, err)
			}
		}
	}
	if err := ch.Qos(8, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &Consumer{conn: conn, ch: ch, queue: q.Name, name: consumerName}, nil
}

// Run pulls deliveries until ctx is cancelled or the channel closes.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.queue, c.name, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := handle(ctx, d); err != nil {
				log.Printf("[%s] handle key=%s err=%v -> nack+requeue", c.name, d.RoutingKey, err)
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
