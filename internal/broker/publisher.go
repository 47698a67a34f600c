// Package broker fans order updates out to RabbitMQ for consumers outside
// this process.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/campus-eats/internal/config"
	"github.com/vasiliy-maslov/campus-eats/internal/order"
	"github.com/vasiliy-maslov/campus-eats/internal/realtime"
)

// publishTimeout bounds a single publish. Notifiers run under the order's
// lock, so a stalled broker delays later updates to that order by at most
// this long.
const publishTimeout = time.Second

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	mu       sync.Mutex
	ch       Channel
	exchange string
	closers  []func() error
}

// Dial connects to RabbitMQ and declares a durable fanout exchange.
func Dial(cfg config.RabbitMQConfig) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("broker: failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("broker: failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("broker: failed to declare exchange %q: %w", cfg.Exchange, err)
	}

	p := NewPublisher(ch, cfg.Exchange)
	p.closers = []func() error{ch.Close, conn.Close}
	return p, nil
}

func NewPublisher(ch Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

func encode(u order.Update, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(realtime.NewOrderUpdateMessage(u))
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Type:         realtime.TypeOrderUpdate,
		MessageId:    u.OrderID.String() + ":" + u.UpdatedAt.Format(time.RFC3339Nano),
		Timestamp:    now,
		Body:         body,
	}, nil
}

// NotifyOrderUpdate publishes u. Failures are logged, the status change is
// already committed.
func (p *Publisher) NotifyOrderUpdate(ctx context.Context, u order.Update) {
	msg, err := encode(u, time.Now())
	if err != nil {
		log.Error().Err(err).Stringer("order_id", u.OrderID).Msg("broker: failed to encode order update")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, p.exchange, "", false, false, msg)
	p.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Stringer("order_id", u.OrderID).Str("exchange", p.exchange).Msg("broker: failed to publish order update")
		return
	}

	log.Debug().Stringer("order_id", u.OrderID).Stringer("status", u.Status).Msg("broker: order update published")
}

func (p *Publisher) Close() error {
	for _, closeFn := range p.closers {
		if err := closeFn(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			return fmt.Errorf("broker: failed to close: %w", err)
		}
	}
	return nil
}
