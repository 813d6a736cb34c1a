package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Guizzs26/go-traintracker/internal/models"
	"github.com/Guizzs26/go-traintracker/pkg/infra"
	"github.com/Guizzs26/go-traintracker/pkg/metrics"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	dialAttempts   = 5
	confirmTimeout = 10 * time.Second
)

// RoutingKey returns the topic an ingest into table is published under
func RoutingKey(table string) string {
	return fmt.Sprintf("ingest.%s.written", table)
}

// Publisher announces committed ingest runs on a topic exchange with publisher confirms
type Publisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	logger     *slog.Logger
	connClosed chan *amqp.Error
	chanClosed chan *amqp.Error
	closeOnce  sync.Once
	healthy    atomic.Bool
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewPublisher dials the broker, retrying with backoff, declares exchange and
// puts the channel into confirm mode.
func NewPublisher(ctx context.Context, url, exchange string, l *slog.Logger) (*Publisher, error) {
	var c *amqp.Connection
	b := infra.NewBackoff(500*time.Millisecond, 5*time.Second, 2)
	err := b.Retry(ctx, dialAttempts, func() error {
		var err error
		c, err = amqp.Dial(url)
		if err != nil {
			l.Warn("RabbitMQ not reachable, retrying", "attempt", b.Attempts()+1, "error", err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := c.Channel()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		c.Close()
		return nil, fmt.Errorf("failed to declare topic exchange: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		c.Close()
		return nil, fmt.Errorf("failed to activate Publisher Confirms: %w", err)
	}

	mctx, cancel := context.WithCancel(context.Background())
	p := &Publisher{
		conn:       c,
		channel:    ch,
		exchange:   exchange,
		logger:     l,
		connClosed: make(chan *amqp.Error, 1),
		chanClosed: make(chan *amqp.Error, 1),
		ctx:        mctx,
		cancel:     cancel,
	}

	p.healthy.Store(true)
	metrics.BrokerHealthy.Set(1)

	p.conn.NotifyClose(p.connClosed)
	p.channel.NotifyClose(p.chanClosed)

	go func() {
		select {
		case err := <-p.connClosed:
			p.markDown("RabbitMQ connection closed", err)
		case err := <-p.chanClosed:
			p.markDown("RabbitMQ channel closed", err)
		case <-p.ctx.Done():
			return
		}
	}()

	l.Info("Connected to RabbitMQ", "exchange", exchange)
	return p, nil
}

func (p *Publisher) markDown(msg string, err *amqp.Error) {
	p.healthy.Store(false)
	metrics.BrokerHealthy.Set(0)
	p.logger.Warn(msg, "error", err)
}

// PublishIngest sends event and blocks until the broker confirms it
func (p *Publisher) PublishIngest(ctx context.Context, event models.IngestEvent) error {
	if !p.IsHealthy() {
		metrics.NotificationsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("broker connection is closed")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	routingKey := RoutingKey(event.Table)
	l := p.logger.With("event_id", event.EventID, "routing_key", routingKey)

	deferred, err := p.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			MessageId:    event.EventID,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		metrics.NotificationsPublished.WithLabelValues("error").Inc()
		l.Error("Failed to publish ingest event", "error", err)
		return fmt.Errorf("publish call failed: %w", err)
	}

	select {
	case <-ctx.Done():
		metrics.NotificationsPublished.WithLabelValues("error").Inc()
		return ctx.Err()
	case <-deferred.Done():
		if !deferred.Acked() {
			metrics.NotificationsPublished.WithLabelValues("nacked").Inc()
			return fmt.Errorf("RabbitMQ NACK received: event not persisted")
		}
		metrics.NotificationsPublished.WithLabelValues("acked").Inc()
		l.Debug("Ingest event confirmed")
		return nil
	case <-time.After(confirmTimeout):
		metrics.NotificationsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("publisher confirm timeout")
	}
}

// Close shuts down the channel and connection. Safe to call more than once.
func (p *Publisher) Close() error {
	p.closeOnce.Do(func() {
		p.logger.Info("Closing RabbitMQ publisher")
		p.cancel()
		if p.channel != nil {
			p.channel.Close()
		}
		if p.conn != nil {
			p.conn.Close()
		}
		metrics.BrokerHealthy.Set(0)
	})
	return nil
}

// IsHealthy reports whether the connection and channel are still open
func (p *Publisher) IsHealthy() bool {
	return p.healthy.Load()
}
