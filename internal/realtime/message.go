package realtime

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/campus-eats/internal/order"
)

const (
	TypeSubscribeOrder   = "SUBSCRIBE_ORDER"
	TypeUnsubscribeOrder = "UNSUBSCRIBE_ORDER"
	TypeOrderUpdate      = "ORDER_UPDATE"
)

// InboundMessage is a client frame. OrderID stays a string so a bad id can
// be logged as sent.
type InboundMessage struct {
	Type    string `json:"type"`
	OrderID string `json:"orderId"`
}

type OrderUpdateMessage struct {
	Type       string       `json:"type"`
	OrderID    uuid.UUID    `json:"orderId"`
	Status     order.Status `json:"status"`
	EtaMinutes *int         `json:"etaMinutes,omitempty"`
	VendorNote *string      `json:"vendorNote,omitempty"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

func NewOrderUpdateMessage(u order.Update) OrderUpdateMessage {
	return OrderUpdateMessage{
		Type:       TypeOrderUpdate,
		OrderID:    u.OrderID,
		Status:     u.Status,
		EtaMinutes: u.EtaMinutes,
		VendorNote: u.VendorNote,
		UpdatedAt:  u.UpdatedAt,
	}
}
