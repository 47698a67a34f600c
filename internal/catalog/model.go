package catalog

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/campus-eats/internal/money"
)

type Vendor struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	ContactName     string    `json:"contactName" db:"contact_name"`
	ContactPhone    string    `json:"contactPhone" db:"contact_phone"`
	Email           string    `json:"email" db:"email"`
	OpeningHours    string    `json:"openingHours" db:"opening_hours"`
	PrepTimeMinutes int       `json:"prepTimeMinutes" db:"prep_time_minutes"`
	ImageURL        *string   `json:"imageUrl,omitempty" db:"image_url"`
	Active          bool      `json:"active" db:"active"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

type MenuItem struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	VendorID    uuid.UUID   `json:"vendorId" db:"vendor_id"`
	Name        string      `json:"name" db:"name"`
	Description string      `json:"description" db:"description"`
	Price       money.Money `json:"price" db:"price_cents"`
	IsAvailable bool        `json:"isAvailable" db:"is_available"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
}
