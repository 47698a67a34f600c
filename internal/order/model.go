package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/campus-eats/internal/catalog"
	"github.com/vasiliy-maslov/campus-eats/internal/money"
	"github.com/vasiliy-maslov/campus-eats/internal/user"
)

// Item is one order line. Name and unit price are copied from the menu at
// creation so later menu edits do not change past orders.
type Item struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	OrderID      uuid.UUID   `json:"orderId" db:"order_id"`
	MenuItemID   uuid.UUID   `json:"menuItemId" db:"menu_item_id"`
	MenuItemName string      `json:"menuItemName" db:"menu_item_name"`
	Quantity     int         `json:"quantity" db:"quantity"`
	UnitPrice    money.Money `json:"unitPrice" db:"unit_price_cents"`
	TotalPrice   money.Money `json:"totalPrice" db:"total_price_cents"`
}

type Order struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	UserID         uuid.UUID   `json:"userId" db:"user_id"`
	VendorID       uuid.UUID   `json:"vendorId" db:"vendor_id"`
	Items          []Item      `json:"items" db:"-"`
	TotalAmount    money.Money `json:"totalAmount" db:"total_amount_cents"`
	Status         Status      `json:"status" db:"status"`
	EtaMinutes     *int        `json:"etaMinutes" db:"eta_minutes"`
	VendorNote     *string     `json:"vendorNote" db:"vendor_note"`
	CustomerName   string      `json:"customerName" db:"customer_name"`
	CustomerPhone  string      `json:"customerPhone" db:"customer_phone"`
	CustomerRoomNo string      `json:"customerRoomNo" db:"customer_room_no"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time   `json:"updatedAt" db:"updated_at"`
}

// OrderDetail is an order with its vendor and customer attached.
type OrderDetail struct {
	Order
	Vendor *catalog.Vendor `json:"vendor,omitempty"`
	User   *user.User      `json:"user,omitempty"`
}

type LineInput struct {
	MenuItemID uuid.UUID
	Quantity   int
}

// CreateOrderInput is what a customer submits. Empty contact fields are
// filled from the customer's profile.
type CreateOrderInput struct {
	VendorID       uuid.UUID
	CustomerName   string
	CustomerPhone  string
	CustomerRoomNo string
	Items          []LineInput
}

// StatusChange is a validated transition ready to be persisted. From is the
// status the change was validated against.
type StatusChange struct {
	OrderID    uuid.UUID
	From       Status
	To         Status
	EtaMinutes *int
	VendorNote *string
	UpdatedAt  time.Time
}

// apply copies a persisted change onto o.
func (c StatusChange) apply(o *Order) {
	o.Status = c.To
	if c.EtaMinutes != nil {
		eta := *c.EtaMinutes
		o.EtaMinutes = &eta
	}
	if c.VendorNote != nil {
		note := *c.VendorNote
		o.VendorNote = &note
	}
	o.UpdatedAt = c.UpdatedAt
}
