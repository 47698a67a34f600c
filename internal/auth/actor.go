package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleVendor  Role = "vendor"
	RoleAdmin   Role = "admin"
)

var ErrInvalidRole = errors.New("invalid role")

func (r Role) String() string {
	return string(r)
}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// ParseRole maps an empty string to RoleStudent, the implicit default.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleStudent, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Actor is the authenticated identity behind a request.
type Actor struct {
	UserID uuid.UUID
	Role   Role
	// VendorID is set only for vendor accounts.
	VendorID uuid.UUID
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) IsVendor() bool {
	return a.Role == RoleVendor && a.VendorID != uuid.Nil
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
