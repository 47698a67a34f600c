package user

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/campus-eats/internal/auth"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	FirstName    string     `json:"firstName" db:"first_name"`
	LastName     string     `json:"lastName" db:"last_name"`
	Phone        string     `json:"phone" db:"phone"`
	RoomNo       string     `json:"roomNo" db:"room_no"`
	Role         auth.Role  `json:"role" db:"role"`
	VendorID     *uuid.UUID `json:"vendorId,omitempty" db:"vendor_id"`
	PasswordHash string     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName joins first and last name, skipping empty parts.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u *User) Actor() auth.Actor {
	a := auth.Actor{UserID: u.ID, Role: u.Role}
	if u.VendorID != nil {
		a.VendorID = *u.VendorID
	}
	return a
}
