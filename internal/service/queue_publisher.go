// Package service holds integrations that sit beside the request path.
// CommandPublisher announces relayed gate commands on RabbitMQ; failures are
// returned to the caller, which logs them and carries on.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-gate-control/internal/model"
	q "github.com/iliyamo/parking-gate-control/internal/queue"
)

// ErrNoBroker is returned when the publisher has no broker URL.
var ErrNoBroker = errors.New("rabbitmq: no broker configured")

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Dialer opens a channel to the broker.  The returned closer releases any
// connection owned by the channel.
type Dialer func(url string) (Channel, func() error, error)

// CommandPublisher keeps one channel open and re-dials after a failure.
type CommandPublisher struct {
	url  string
	dial Dialer
	log  *zap.Logger
	now  func() time.Time

	mu      sync.Mutex
	ch      Channel
	closeFn func() error
}

// NewCommandPublisher returns nil when url is empty so callers can skip
// wiring it.
func NewCommandPublisher(url string, log *zap.Logger) *CommandPublisher {
	if url == "" {
		return nil
	}
	return newCommandPublisher(url, amqpDial, log)
}

func newCommandPublisher(url string, dial Dialer, log *zap.Logger) *CommandPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommandPublisher{url: url, dial: dial, log: log, now: time.Now}
}

func amqpDial(url string) (Channel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	return ch, conn.Close, nil
}

// PublishDispatched sends a persistent CommandDispatchedEvent.
func (p *CommandPublisher) PublishDispatched(ctx context.Context, cmd model.GateCommand) error {
	if p == nil {
		return ErrNoBroker
	}
	body, err := json.Marshal(q.NewCommandDispatchedEvent(cmd, p.now()))
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", q.CommandDispatchedQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		MessageId:    cmd.Key,
		Body:         body,
	})
	if err != nil {
		p.reset()
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// channel returns the open channel, dialling and declaring the queue first
// when needed.  Callers hold p.mu.
func (p *CommandPublisher) channel() (Channel, error) {
	if p.ch != nil {
		return p.ch, nil
	}
	ch, closeFn, err := p.dial(p.url)
	if err != nil {
		return nil, err
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.CommandDispatchedQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		if closeFn != nil {
			_ = closeFn()
		}
		return nil, fmt.Errorf("rabbitmq: queue declare: %w", err)
	}
	p.ch, p.closeFn = ch, closeFn
	return ch, nil
}

func (p *CommandPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.closeFn != nil {
		_ = p.closeFn()
	}
	p.ch, p.closeFn = nil, nil
}

// Close releases the broker connection.
func (p *CommandPublisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
