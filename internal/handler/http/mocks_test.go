package http_test

import (
	"context"
	"errors"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vasiliy-maslov/campus-eats/internal/auth"
	"github.com/vasiliy-maslov/campus-eats/internal/catalog"
	"github.com/vasiliy-maslov/campus-eats/internal/order"
	"github.com/vasiliy-maslov/campus-eats/internal/user"
)

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListVendors(ctx context.Context, activeOnly bool) ([]catalog.Vendor, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Vendor), args.Error(1)
}

func (m *MockCatalogService) GetVendor(ctx context.Context, id uuid.UUID) (*catalog.Vendor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Vendor), args.Error(1)
}

func (m *MockCatalogService) GetVendorMenu(ctx context.Context, vendorID uuid.UUID) ([]catalog.MenuItem, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.MenuItem), args.Error(1)
}

func (m *MockCatalogService) GetMenuItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.MenuItem, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]catalog.MenuItem), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, actor auth.Actor, in order.CreateOrderInput) (*order.Order, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, actor auth.Actor, id uuid.UUID) (*order.OrderDetail, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.OrderDetail), args.Error(1)
}

func (m *MockOrderService) ListUserOrders(ctx context.Context, actor auth.Actor) ([]order.Order, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) ListVendorOrders(ctx context.Context, actor auth.Actor, vendorID uuid.UUID, statuses []string) ([]order.OrderDetail, error) {
	args := m.Called(ctx, actor, vendorID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.OrderDetail), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, t order.Transition) (*order.Order, error) {
	args := m.Called(ctx, actor, id, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error {
	return p.err
}

var errDatabaseDown = errors.New("database down")
