package realtime

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/campus-eats/internal/order"
)

// Dispatcher pushes committed order changes to websocket subscribers.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

func (d *Dispatcher) NotifyOrderUpdate(_ context.Context, u order.Update) {
	n := d.registry.Broadcast(u.OrderID, NewOrderUpdateMessage(u))
	log.Debug().Stringer("order_id", u.OrderID).Stringer("status", u.Status).Int("delivered", n).Msg("realtime: order update broadcast")
}
