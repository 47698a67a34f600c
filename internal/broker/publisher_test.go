package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/campus-eats/internal/order"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
	deadline bool
}

type fakeChannel struct {
	mu    sync.Mutex
	err   error
	stall bool
	sent  []published
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.stall {
		<-ctx.Done()
		return ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	_, hasDeadline := ctx.Deadline()
	c.sent = append(c.sent, published{exchange: exchange, key: key, msg: msg, deadline: hasDeadline})
	return nil
}

func TestPublisher_NotifyOrderUpdate(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, "order_updates")

	eta := 20
	u := order.Update{
		OrderID:    uuid.Must(uuid.NewV4()),
		Status:     order.StatusConfirmed,
		EtaMinutes: &eta,
		UpdatedAt:  time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
	}
	p.NotifyOrderUpdate(context.Background(), u)

	require.Len(t, ch.sent, 1)
	got := ch.sent[0]
	assert.Equal(t, "order_updates", got.exchange)
	assert.Empty(t, got.key)
	assert.True(t, got.deadline)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, "ORDER_UPDATE", got.msg.Type)

	var body map[string]any
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, "ORDER_UPDATE", body["type"])
	assert.Equal(t, u.OrderID.String(), body["orderId"])
	assert.Equal(t, "confirmed", body["status"])
	assert.EqualValues(t, 20, body["etaMinutes"])
	assert.Equal(t, "2024-03-01T12:30:00Z", body["updatedAt"])
}

func TestPublisher_PublishErrorIsSwallowed(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := NewPublisher(ch, "order_updates")

	assert.NotPanics(t, func() {
		p.NotifyOrderUpdate(context.Background(), order.Update{OrderID: uuid.Must(uuid.NewV4()), Status: order.StatusReady})
	})
	assert.Empty(t, ch.sent)
	assert.NoError(t, p.Close())
}

func TestEncode_MessageIDIsStablePerChange(t *testing.T) {
	u := order.Update{OrderID: uuid.Must(uuid.NewV4()), Status: order.StatusReady, UpdatedAt: time.Unix(1700000000, 0).UTC()}

	a, err := encode(u, time.Now())
	require.NoError(t, err)
	b, err := encode(u, time.Now().Add(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, a.MessageId, b.MessageId)
	assert.Equal(t, a.Body, b.Body)
}

func TestPublisher_StalledBrokerIsBounded(t *testing.T) {
	ch := &fakeChannel{stall: true}
	p := NewPublisher(ch, "order_updates")

	start := time.Now()
	p.NotifyOrderUpdate(context.Background(), order.Update{OrderID: uuid.Must(uuid.NewV4()), Status: order.StatusReady})
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, publishTimeout)
	assert.Less(t, elapsed, publishTimeout+time.Second)
	assert.Empty(t, ch.sent)
}
