package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vasiliy-maslov/campus-eats/internal/money"
)

var (
	ErrVendorNotFound   = errors.New("vendor not found")
	ErrMenuItemNotFound = errors.New("menu item not found")
)

type Repository interface {
	ListVendors(ctx context.Context, activeOnly bool) ([]Vendor, error)
	GetVendorByID(ctx context.Context, id uuid.UUID) (*Vendor, error)
	ListMenuItemsByVendor(ctx context.Context, vendorID uuid.UUID) ([]MenuItem, error)
	GetMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]MenuItem, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const vendorColumns = `id, name, description, contact_name, contact_phone, email, opening_hours, prep_time_minutes, image_url, active, created_at`

const menuItemColumns = `id, vendor_id, name, description, price_cents, is_available, created_at`

func scanVendor(row pgx.Row, v *Vendor) error {
	return row.Scan(
		&v.ID,
		&v.Name,
		&v.Description,
		&v.ContactName,
		&v.ContactPhone,
		&v.Email,
		&v.OpeningHours,
		&v.PrepTimeMinutes,
		&v.ImageURL,
		&v.Active,
		&v.CreatedAt,
	)
}

func scanMenuItem(row pgx.Row, m *MenuItem) error {
	var priceCents int64
	err := row.Scan(
		&m.ID,
		&m.VendorID,
		&m.Name,
		&m.Description,
		&priceCents,
		&m.IsAvailable,
		&m.CreatedAt,
	)
	m.Price = money.FromMinor(priceCents)
	return err
}

func (r *postgresRepository) ListVendors(ctx context.Context, activeOnly bool) ([]Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE (NOT $1::boolean OR active) ORDER BY name`

	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query vendors: %w", err)
	}
	defer rows.Close()

	vendors := make([]Vendor, 0)
	for rows.Next() {
		var v Vendor
		if err := scanVendor(rows, &v); err != nil {
			return nil, fmt.Errorf("repository: failed to scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating vendors: %w", err)
	}

	return vendors, nil
}

func (r *postgresRepository) GetVendorByID(ctx context.Context, id uuid.UUID) (*Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE id = $1`

	var v Vendor
	if err := scanVendor(r.db.QueryRow(ctx, query, id), &v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVendorNotFound
		}
		return nil, fmt.Errorf("repository: failed to select vendor by id %s: %w", id, err)
	}

	return &v, nil
}

func (r *postgresRepository) ListMenuItemsByVendor(ctx context.Context, vendorID uuid.UUID) ([]MenuItem, error) {
	query := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE vendor_id = $1 ORDER BY name`
	return r.queryMenuItems(ctx, query, vendorID)
}

func (r *postgresRepository) GetMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]MenuItem, error) {
	if len(ids) == 0 {
		return []MenuItem{}, nil
	}
	query := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = ANY($1)`
	return r.queryMenuItems(ctx, query, ids)
}

func (r *postgresRepository) queryMenuItems(ctx context.Context, query string, arg any) ([]MenuItem, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query menu items: %w", err)
	}
	defer rows.Close()

	items := make([]MenuItem, 0)
	for rows.Next() {
		var m MenuItem
		if err := scanMenuItem(rows, &m); err != nil {
			return nil, fmt.Errorf("repository: failed to scan menu item: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating menu items: %w", err)
	}

	return items, nil
}
