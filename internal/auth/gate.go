package auth

import (
	"errors"

	"github.com/gofrs/uuid"
)

var (
	ErrForbidden           = errors.New("forbidden")
	ErrVendorScopeRequired = errors.New("vendor id is required")
)

// CanViewOrder reports whether a may read an order owned by ownerID and
// placed with vendorID.
func CanViewOrder(a Actor, ownerID, vendorID uuid.UUID) bool {
	switch {
	case a.IsAdmin():
		return true
	case a.UserID != uuid.Nil && a.UserID == ownerID:
		return true
	case a.IsVendor() && a.VendorID == vendorID:
		return true
	}
	return false
}

// AuthorizeOrderMutation allows admins on any order and vendors on their own
// vendor's orders. Everyone else gets ErrForbidden.
func AuthorizeOrderMutation(a Actor, vendorID uuid.UUID) error {
	if a.IsAdmin() {
		return nil
	}
	if a.IsVendor() && a.VendorID == vendorID {
		return nil
	}
	return ErrForbidden
}

// VendorScope resolves which vendor's orders a listing covers. Vendors are
// pinned to their own vendor; admins must name one explicitly.
func VendorScope(a Actor, requested uuid.UUID) (uuid.UUID, error) {
	switch {
	case a.IsAdmin():
		if requested == uuid.Nil {
			return uuid.Nil, ErrVendorScopeRequired
		}
		return requested, nil
	case a.IsVendor():
		if requested != uuid.Nil && requested != a.VendorID {
			return uuid.Nil, ErrForbidden
		}
		return a.VendorID, nil
	}
	return uuid.Nil, ErrForbidden
}
