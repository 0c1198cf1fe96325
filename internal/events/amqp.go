package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"distribution-service/pkg/config"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPPublisher publishes events to a durable topic exchange
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      *zap.Logger
}

// NewPublisher returns an AMQP publisher when a URL is configured and a
// NoopPublisher otherwise
func NewPublisher(cfg config.AMQPConfig, log *zap.Logger) (Publisher, error) {
	if cfg.URL == "" {
		log.Info("AMQP_URL not set, distribution events disabled")
		return NoopPublisher{}, nil
	}
	p, err := DialAMQP(cfg.URL, cfg.Exchange, log)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DialAMQP connects and declares the exchange
func DialAMQP(url, exchange string, log *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}

	log.Info("Connected to RabbitMQ", zap.String("exchange", exchange))
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, log: log}, nil
}

func (p *AMQPPublisher) PublishDistributionCompleted(ctx context.Context, event DistributionCompleted) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := newPublishing(event, time.Now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.Publish(
		p.exchange,
		RoutingKeyDistributionCompleted,
		false, // mandatory
		false, // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", RoutingKeyDistributionCompleted, err)
	}

	p.log.Debug("Published distribution event",
		zap.String("message_id", msg.MessageId),
		zap.String("file", event.OriginalFileName))
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

func newPublishing(event DistributionCompleted, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.New().String(),
		Timestamp:    now,
		Type:         RoutingKeyDistributionCompleted,
		Body:         body,
	}, nil
}
