package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"ridedesk/internal/utils"

	amqp "github.com/rabbitmq/amqp091-go"
)

var errClosed = errors.New("amqp publisher closed")

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type AMQPPublisher struct {
	exchange string
	dial     func() (*amqp.Connection, channel, error)

	mu   sync.Mutex
	conn *amqp.Connection
	ch   channel
}

// NewAMQPPublisher connects to url and declares a durable topic exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{
		exchange: exchange,
		dial: func() (*amqp.Connection, channel, error) {
			conn, err := amqp.Dial(url)
			if err != nil {
				return nil, nil, err
			}
			ch, err := conn.Channel()
			if err != nil {
				conn.Close()
				return nil, nil, err
			}
			return conn, ch, nil
		},
	}
	if err := p.connect(); err != nil {
		return nil, fmt.Errorf("amqp connect: %w", err)
	}
	return p, nil
}

func (p *AMQPPublisher) connect() error {
	conn, ch, err := p.dial()
	if err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		if conn != nil {
			conn.Close()
		}
		return fmt.Errorf("declare exchange: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *AMQPPublisher) alive() bool {
	return p.ch != nil && (p.conn == nil || !p.conn.IsClosed())
}

// Publish sends env as persistent JSON, reconnecting once if the connection dropped.
func (p *AMQPPublisher) Publish(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dial == nil {
		return errClosed
	}
	if !p.alive() {
		utils.LogEvent(env.RequestID, "events", "reconnect", "amqp connection lost, redialing")
		if err := p.connect(); err != nil {
			return fmt.Errorf("amqp reconnect: %w", err)
		}
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return p.ch.PublishWithContext(pubCtx, p.exchange, env.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID,
		Timestamp:    env.OccurredAt,
		Type:         env.Type,
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dial = nil
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	p.ch, p.conn = nil, nil
	return errors.Join(errs...)
}
