package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"shopapi/internal/model"
	"shopapi/internal/repository"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, userID string, pq repository.PageQuery) (*repository.PageResult[model.Order], error) {
	args := m.Called(ctx, userID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Order]), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, f repository.OrderFilter) (*repository.PageResult[model.Order], error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Order]), args.Error(1)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByNumber(ctx context.Context, number string) (*model.Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) error {
	return m.Called(ctx, id, from, to).Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) CreatePendingCheckout(ctx context.Context, in repository.CheckoutInput) (*repository.CheckoutResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.CheckoutResult), args.Error(1)
}

func (m *MockPaymentRepository) FindSession(ctx context.Context, id string) (*model.PaymentSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentSession), args.Error(1)
}

func (m *MockPaymentRepository) FindSessionByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.PaymentSession, error) {
	args := m.Called(ctx, gatewayOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentSession), args.Error(1)
}

func (m *MockPaymentRepository) CompleteSession(ctx context.Context, in repository.CompleteInput) (*repository.TransitionResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TransitionResult), args.Error(1)
}

func (m *MockPaymentRepository) CloseSession(ctx context.Context, in repository.CloseInput) (*repository.TransitionResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TransitionResult), args.Error(1)
}

func (m *MockPaymentRepository) TouchSession(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockPaymentRepository) AppendLog(ctx context.Context, l *model.PaymentLog) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockPaymentRepository) ListSessions(ctx context.Context, f repository.SessionFilter) (*repository.PageResult[model.PaymentSession], error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.PaymentSession]), args.Error(1)
}

func (m *MockPaymentRepository) ListLogs(ctx context.Context, sessionID string) ([]model.PaymentLog, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PaymentLog), args.Error(1)
}

func (m *MockPaymentRepository) ListPendingCreatedBefore(ctx context.Context, t time.Time, limit int) ([]model.PaymentSession, error) {
	args := m.Called(ctx, t, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PaymentSession), args.Error(1)
}

func (m *MockPaymentRepository) ListExpiredPending(ctx context.Context, t time.Time, limit int) ([]model.PaymentSession, error) {
	args := m.Called(ctx, t, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PaymentSession), args.Error(1)
}
