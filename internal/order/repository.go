package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/campus-eats/internal/catalog"
	"github.com/vasiliy-maslov/campus-eats/internal/money"
	"github.com/vasiliy-maslov/campus-eats/internal/user"
)

type Repository interface {
	// CreateOrder inserts the order and all its items in one transaction.
	// Missing ids are generated and written back to o. Items are read back
	// in the order they appear in o.Items.
	CreateOrder(ctx context.Context, o *Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	// ListByVendor returns orders newest first. An empty statuses slice
	// means no status filter.
	ListByVendor(ctx context.Context, vendorID uuid.UUID, statuses []Status) ([]Order, error)
	// UpdateStatus persists c only if the order is still in c.From.
	UpdateStatus(ctx context.Context, c StatusChange) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const orderColumns = `
	id, user_id, vendor_id, total_amount_cents, status::text,
	eta_minutes, vendor_note, customer_name, customer_phone, customer_room_no,
	created_at, updated_at`

const itemColumns = `id, order_id, menu_item_id, menu_item_name, quantity, unit_price_cents, total_price_cents`

func (r *postgresRepository) CreateOrder(ctx context.Context, o *Order) (err error) {
	if o.ID == uuid.Nil {
		if o.ID, err = uuid.NewV4(); err != nil {
			return fmt.Errorf("repository: failed to generate order id: %w", err)
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Stringer("order_id", o.ID).Msg("repository: failed to rollback transaction")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	queryOrder := `
		INSERT INTO orders (id, user_id, vendor_id, total_amount_cents, status, eta_minutes, vendor_note,
			customer_name, customer_phone, customer_room_no, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::text::order_status, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.Exec(ctx, queryOrder,
		o.ID,
		o.UserID,
		o.VendorID,
		o.TotalAmount.Minor(),
		o.Status.String(),
		o.EtaMinutes,
		o.VendorNote,
		o.CustomerName,
		o.CustomerPhone,
		o.CustomerRoomNo,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return mapInsertError(fmt.Errorf("repository: failed to insert order: %w", err))
	}

	queryItem := `
		INSERT INTO order_items (` + itemColumns + `, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i := range o.Items {
		item := &o.Items[i]
		if item.ID == uuid.Nil {
			if item.ID, err = uuid.NewV4(); err != nil {
				return fmt.Errorf("repository: failed to generate order item id: %w", err)
			}
		}
		item.OrderID = o.ID

		_, err = tx.Exec(ctx, queryItem,
			item.ID,
			item.OrderID,
			item.MenuItemID,
			item.MenuItemName,
			item.Quantity,
			item.UnitPrice.Minor(),
			item.TotalPrice.Minor(),
			i,
		)
		if err != nil {
			return mapInsertError(fmt.Errorf("repository: failed to insert order item for order %s: %w", o.ID, err))
		}
	}

	return nil
}

// mapInsertError turns foreign key violations into the not-found error of
// the referenced entity.
func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.ForeignKeyViolation {
		return err
	}

	switch pgErr.ConstraintName {
	case "orders_vendor_id_fkey":
		return fmt.Errorf("%w: %w", catalog.ErrVendorNotFound, err)
	case "orders_user_id_fkey":
		return fmt.Errorf("%w: %w", user.ErrNotFound, err)
	case "order_items_menu_item_id_fkey":
		return fmt.Errorf("%w: %w", catalog.ErrMenuItemNotFound, err)
	}
	return err
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o      Order
		total  int64
		status string
	)
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.VendorID,
		&total,
		&status,
		&o.EtaMinutes,
		&o.VendorNote,
		&o.CustomerName,
		&o.CustomerPhone,
		&o.CustomerRoomNo,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.TotalAmount = money.FromMinor(total)
	o.Status = Status(status)
	o.Items = make([]Item, 0)
	return &o, nil
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	if err := r.attachItems(ctx, map[uuid.UUID]*Order{o.ID: o}, []uuid.UUID{o.ID}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	return r.listOrders(ctx, query, userID)
}

func (r *postgresRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID, statuses []Status) ([]Order, error) {
	names := make([]string, 0, len(statuses))
	for _, st := range statuses {
		names = append(names, st.String())
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE vendor_id = $1
		  AND (cardinality($2::text[]) = 0 OR status::text = ANY($2::text[]))
		ORDER BY created_at DESC
	`
	return r.listOrders(ctx, query, vendorID, names)
}

func (r *postgresRepository) listOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*Order)
	var ids []uuid.UUID
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	if len(ids) == 0 {
		return []Order{}, nil
	}

	if err := r.attachItems(ctx, byID, ids); err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(ids))
	for _, id := range ids {
		orders = append(orders, *byID[id])
	}
	return orders, nil
}

func (r *postgresRepository) attachItems(ctx context.Context, byID map[uuid.UUID]*Order, ids []uuid.UUID) error {
	query := `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item              Item
			unitCents, totalC int64
		)
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.MenuItemID,
			&item.MenuItemName,
			&item.Quantity,
			&unitCents,
			&totalC,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		item.UnitPrice = money.FromMinor(unitCents)
		item.TotalPrice = money.FromMinor(totalC)

		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating order items: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, c StatusChange) error {
	query := `
		UPDATE orders
		SET status = $2::text::order_status,
		    eta_minutes = COALESCE($3, eta_minutes),
		    vendor_note = COALESCE($4, vendor_note),
		    updated_at = $5
		WHERE id = $1
		  AND status = $6::text::order_status
		  AND status NOT IN ('completed', 'cancelled')
	`
	cmdTag, err := r.db.Exec(ctx, query,
		c.OrderID,
		c.To.String(),
		c.EtaMinutes,
		c.VendorNote,
		c.UpdatedAt,
		c.From.String(),
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order status %s: %w", c.OrderID, err)
	}
	if cmdTag.RowsAffected() == 1 {
		return nil
	}

	var current string
	err = r.db.QueryRow(ctx, `SELECT status::text FROM orders WHERE id = $1`, c.OrderID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("repository: failed to reload order status %s: %w", c.OrderID, err)
	}

	log.Warn().Stringer("order_id", c.OrderID).Str("expected_status", c.From.String()).Str("current_status", current).Msg("repository: guarded status update matched no row")
	if Status(current).IsTerminal() {
		return ErrOrderAlreadyTerminal
	}
	return ErrStatusConflict
}
