package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/campus-eats/internal/auth"
	"github.com/vasiliy-maslov/campus-eats/internal/catalog"
	"github.com/vasiliy-maslov/campus-eats/internal/money"
	"github.com/vasiliy-maslov/campus-eats/internal/user"
)

// Catalog is the subset of catalog.Service used to price orders.
type Catalog interface {
	GetVendor(ctx context.Context, id uuid.UUID) (*catalog.Vendor, error)
	GetMenuItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.MenuItem, error)
}

type Users interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Update describes a committed status change.
type Update struct {
	OrderID    uuid.UUID
	Status     Status
	EtaMinutes *int
	VendorNote *string
	UpdatedAt  time.Time
}

// Notifier receives every committed status change, in commit order per
// order id. NotifyOrderUpdate is called while the order's lock is held, so
// a slow notifier delays the next update to the same order. Implementations
// must bound their own blocking.
type Notifier interface {
	NotifyOrderUpdate(ctx context.Context, u Update)
}

type Service interface {
	CreateOrder(ctx context.Context, actor auth.Actor, in CreateOrderInput) (*Order, error)
	GetOrder(ctx context.Context, actor auth.Actor, id uuid.UUID) (*OrderDetail, error)
	ListUserOrders(ctx context.Context, actor auth.Actor) ([]Order, error)
	ListVendorOrders(ctx context.Context, actor auth.Actor, vendorID uuid.UUID, statuses []string) ([]OrderDetail, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, t Transition) (*Order, error)
}

// MaxItemQuantity caps the quantity of a single order line.
const MaxItemQuantity = 1000

type Option func(*service)

func WithPolicy(p Policy) Option {
	return func(s *service) { s.policy = p }
}

// WithNotifier adds n to the notifiers called after each status change.
func WithNotifier(n Notifier) Option {
	return func(s *service) { s.notifiers = append(s.notifiers, n) }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	repo      Repository
	catalog   Catalog
	users     Users
	policy    Policy
	notifiers []Notifier
	locks     *keyedMutex
	now       func() time.Time
}

func NewService(repo Repository, cat Catalog, users Users, opts ...Option) Service {
	s := &service{
		repo:    repo,
		catalog: cat,
		users:   users,
		policy:  PolicyLenient,
		locks:   newKeyedMutex(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateOrder(ctx context.Context, actor auth.Actor, in CreateOrderInput) (*Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, auth.ErrForbidden
	}

	verr := &ValidationError{}
	if in.VendorID == uuid.Nil {
		verr.Add("vendorId", "is required")
	}
	if len(in.Items) == 0 {
		verr.Add("items", "must contain at least one item")
	}
	ids := make([]uuid.UUID, 0, len(in.Items))
	for i, line := range in.Items {
		if line.MenuItemID == uuid.Nil {
			verr.Add(fmt.Sprintf("items[%d].menuItemId", i), "is required")
		}
		switch {
		case line.Quantity <= 0:
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "must be a positive integer")
		case line.Quantity > MaxItemQuantity:
			verr.Add(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("must be at most %d", MaxItemQuantity))
		}
		ids = append(ids, line.MenuItemID)
	}
	if !verr.Empty() {
		log.Warn().Err(verr).Stringer("user_id", actor.UserID).Msg("service: rejected order input")
		return nil, verr
	}

	vendor, err := s.catalog.GetVendor(ctx, in.VendorID)
	if err != nil {
		if errors.Is(err, catalog.ErrVendorNotFound) {
			return nil, catalog.ErrVendorNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch vendor: %w", err)
	}
	if !vendor.Active {
		verr.Add("vendorId", "vendor is not accepting orders")
		return nil, verr
	}

	if err := s.fillContact(ctx, actor.UserID, &in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		verr.Add("customerName", "is required")
	}
	if strings.TrimSpace(in.CustomerPhone) == "" {
		verr.Add("customerPhone", "is required")
	}
	if strings.TrimSpace(in.CustomerRoomNo) == "" {
		verr.Add("customerRoomNo", "is required")
	}
	if !verr.Empty() {
		return nil, verr
	}

	menu, err := s.catalog.GetMenuItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch menu items: %w", err)
	}

	var total money.Money
	items := make([]Item, 0, len(in.Items))
	for i, line := range in.Items {
		mi, ok := menu[line.MenuItemID]
		if !ok {
			log.Warn().Stringer("menu_item_id", line.MenuItemID).Msg("service: order references unknown menu item")
			return nil, fmt.Errorf("%w: %s", catalog.ErrMenuItemNotFound, line.MenuItemID)
		}
		field := fmt.Sprintf("items[%d].menuItemId", i)
		switch {
		case mi.VendorID != in.VendorID:
			verr.Add(field, "belongs to another vendor")
			continue
		case !mi.IsAvailable:
			verr.Add(field, "is not available")
			continue
		}

		lineTotal := mi.Price.Mul(line.Quantity)
		total += lineTotal
		items = append(items, Item{
			MenuItemID:   mi.ID,
			MenuItemName: mi.Name,
			Quantity:     line.Quantity,
			UnitPrice:    mi.Price,
			TotalPrice:   lineTotal,
		})
	}
	if !verr.Empty() {
		return nil, verr
	}

	now := s.timestamp()
	o := &Order{
		UserID:         actor.UserID,
		VendorID:       in.VendorID,
		Items:          items,
		TotalAmount:    total,
		Status:         StatusRequested,
		CustomerName:   strings.TrimSpace(in.CustomerName),
		CustomerPhone:  strings.TrimSpace(in.CustomerPhone),
		CustomerRoomNo: strings.TrimSpace(in.CustomerRoomNo),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		switch {
		case errors.Is(err, catalog.ErrVendorNotFound), errors.Is(err, catalog.ErrMenuItemNotFound), errors.Is(err, user.ErrNotFound):
			log.Warn().Err(err).Stringer("user_id", actor.UserID).Msg("service: order references a missing row")
			return nil, err
		}
		log.Error().Err(err).Stringer("user_id", actor.UserID).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", o.ID).Stringer("user_id", o.UserID).Stringer("vendor_id", o.VendorID).Stringer("total", o.TotalAmount).Msg("service: order created")
	return o, nil
}

// fillContact defaults empty contact fields from the customer's profile.
func (s *service) fillContact(ctx context.Context, userID uuid.UUID, in *CreateOrderInput) error {
	if in.CustomerName != "" && in.CustomerPhone != "" && in.CustomerRoomNo != "" {
		return nil
	}

	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("service: failed to fetch customer profile: %w", err)
	}

	if in.CustomerName == "" {
		in.CustomerName = u.FullName()
	}
	if in.CustomerPhone == "" {
		in.CustomerPhone = u.Phone
	}
	if in.CustomerRoomNo == "" {
		in.CustomerRoomNo = u.RoomNo
	}
	return nil
}

func (s *service) GetOrder(ctx context.Context, actor auth.Actor, id uuid.UUID) (*OrderDetail, error) {
	o, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !auth.CanViewOrder(actor, o.UserID, o.VendorID) {
		log.Warn().Stringer("order_id", id).Stringer("user_id", actor.UserID).Stringer("role", actor.Role).Msg("service: order read denied")
		return nil, auth.ErrForbidden
	}

	detail := &OrderDetail{Order: *o}

	vendor, err := s.catalog.GetVendor(ctx, o.VendorID)
	switch {
	case err == nil:
		detail.Vendor = vendor
	case errors.Is(err, catalog.ErrVendorNotFound):
		log.Warn().Stringer("order_id", id).Stringer("vendor_id", o.VendorID).Msg("service: order vendor is missing")
	default:
		return nil, fmt.Errorf("service: failed to fetch order vendor: %w", err)
	}

	customer, err := s.users.GetUserByID(ctx, o.UserID)
	switch {
	case err == nil:
		detail.User = customer
	case errors.Is(err, user.ErrNotFound):
		log.Warn().Stringer("order_id", id).Stringer("user_id", o.UserID).Msg("service: order customer is missing")
	default:
		return nil, fmt.Errorf("service: failed to fetch order customer: %w", err)
	}

	return detail, nil
}

func (s *service) ListUserOrders(ctx context.Context, actor auth.Actor) ([]Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, auth.ErrForbidden
	}

	orders, err := s.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", actor.UserID).Msg("service: failed to fetch user orders in repository")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}
	return orders, nil
}

func (s *service) ListVendorOrders(ctx context.Context, actor auth.Actor, vendorID uuid.UUID, statuses []string) ([]OrderDetail, error) {
	scope, err := auth.VendorScope(actor, vendorID)
	if err != nil {
		return nil, err
	}

	filter, err := ParseStatuses(statuses)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.ListByVendor(ctx, scope, filter)
	if err != nil {
		log.Error().Err(err).Stringer("vendor_id", scope).Msg("service: failed to fetch vendor orders in repository")
		return nil, fmt.Errorf("service: failed to fetch vendor orders: %w", err)
	}

	customers := make(map[uuid.UUID]*user.User)
	details := make([]OrderDetail, 0, len(orders))
	for _, o := range orders {
		customer, seen := customers[o.UserID]
		if !seen {
			customer, err = s.users.GetUserByID(ctx, o.UserID)
			if err != nil && !errors.Is(err, user.ErrNotFound) {
				return nil, fmt.Errorf("service: failed to fetch order customer: %w", err)
			}
			customers[o.UserID] = customer
		}
		details = append(details, OrderDetail{Order: o, User: customer})
	}
	return details, nil
}

// UpdateStatus applies t to the order. Load, authorization, validation,
// persistence and notification all happen under the order's lock so
// notifiers see changes in commit order.
func (s *service) UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, t Transition) (*Order, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := auth.AuthorizeOrderMutation(actor, current.VendorID); err != nil {
		log.Warn().Stringer("order_id", id).Stringer("user_id", actor.UserID).Stringer("role", actor.Role).Msg("service: status change denied")
		return nil, err
	}

	target, err := s.policy.Validate(current.Status, t)
	if err != nil {
		log.Warn().Err(err).Stringer("order_id", id).Stringer("current_status", current.Status).Str("new_status", t.Status).Msg("service: invalid status transition attempt")
		return nil, err
	}

	change := StatusChange{
		OrderID:    id,
		From:       current.Status,
		To:         target,
		EtaMinutes: t.EtaMinutes,
		VendorNote: t.VendorNote,
		UpdatedAt:  s.timestamp(),
	}
	if err := s.repo.UpdateStatus(ctx, change); err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrOrderAlreadyTerminal), errors.Is(err, ErrStatusConflict):
			log.Warn().Err(err).Stringer("order_id", id).Stringer("new_status", target).Msg("service: guarded status update rejected")
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", id).Stringer("new_status", target).Msg("service: failed to update order status in repository")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}
	change.apply(current)

	log.Info().Stringer("order_id", id).Stringer("old_status", change.From).Stringer("new_status", change.To).Stringer("user_id", actor.UserID).Msg("service: order status updated")

	s.notify(ctx, Update{
		OrderID:    current.ID,
		Status:     current.Status,
		EtaMinutes: current.EtaMinutes,
		VendorNote: current.VendorNote,
		UpdatedAt:  current.UpdatedAt,
	})

	return current, nil
}

// timestamp returns the clock reading at the precision timestamptz stores,
// so responses and broadcasts carry the persisted value.
func (s *service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// notify runs after commit, so a cancelled request must not stop delivery.
func (s *service) notify(ctx context.Context, u Update) {
	ctx = context.WithoutCancel(ctx)
	for _, n := range s.notifiers {
		n.NotifyOrderUpdate(ctx, u)
	}
}

func (s *service) loadOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	return o, nil
}
