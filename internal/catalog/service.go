package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// Service is the read side of vendors and menus. Vendor and menu CRUD is
// handled outside this service.
type Service interface {
	ListVendors(ctx context.Context, activeOnly bool) ([]Vendor, error)
	GetVendor(ctx context.Context, id uuid.UUID) (*Vendor, error)
	GetVendorMenu(ctx context.Context, vendorID uuid.UUID) ([]MenuItem, error)
	GetMenuItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]MenuItem, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListVendors(ctx context.Context, activeOnly bool) ([]Vendor, error) {
	vendors, err := s.repo.ListVendors(ctx, activeOnly)
	if err != nil {
		log.Error().Err(err).Bool("active_only", activeOnly).Msg("service: failed to list vendors")
		return nil, fmt.Errorf("service: failed to list vendors: %w", err)
	}
	return vendors, nil
}

func (s *service) GetVendor(ctx context.Context, id uuid.UUID) (*Vendor, error) {
	vendor, err := s.repo.GetVendorByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrVendorNotFound) {
			return nil, ErrVendorNotFound
		}
		log.Error().Err(err).Stringer("vendor_id", id).Msg("service: failed to fetch vendor")
		return nil, fmt.Errorf("service: failed to fetch vendor: %w", err)
	}
	return vendor, nil
}

func (s *service) GetVendorMenu(ctx context.Context, vendorID uuid.UUID) ([]MenuItem, error) {
	if _, err := s.GetVendor(ctx, vendorID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListMenuItemsByVendor(ctx, vendorID)
	if err != nil {
		log.Error().Err(err).Stringer("vendor_id", vendorID).Msg("service: failed to list menu items")
		return nil, fmt.Errorf("service: failed to list menu items: %w", err)
	}
	return items, nil
}

// GetMenuItems returns the requested items keyed by id. Unknown ids are
// simply absent from the map.
func (s *service) GetMenuItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]MenuItem, error) {
	items, err := s.repo.GetMenuItemsByIDs(ctx, ids)
	if err != nil {
		log.Error().Err(err).Int("count", len(ids)).Msg("service: failed to fetch menu items")
		return nil, fmt.Errorf("service: failed to fetch menu items: %w", err)
	}

	byID := make(map[uuid.UUID]MenuItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return byID, nil
}
