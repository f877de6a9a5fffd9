package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"shopapi/internal/model"
	"shopapi/internal/repository"
	"shopapi/internal/service"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Initiate(ctx context.Context, userID string, in service.InitiateInput) (*service.InitiateResult, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InitiateResult), args.Error(1)
}

func (m *MockPaymentService) GetStatus(ctx context.Context, userID, sessionID string) (*model.PaymentSession, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentSession), args.Error(1)
}

func (m *MockPaymentService) HandleWebhook(ctx context.Context, apiKey string, body []byte) (*service.WebhookResult, error) {
	args := m.Called(ctx, apiKey, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WebhookResult), args.Error(1)
}

func (m *MockPaymentService) Complete(ctx context.Context, sessionID string, c service.Confirmation, source string) (*repository.TransitionResult, error) {
	args := m.Called(ctx, sessionID, c, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TransitionResult), args.Error(1)
}

func (m *MockPaymentService) Fail(ctx context.Context, sessionID, reason, source string, payload []byte) (*repository.TransitionResult, error) {
	args := m.Called(ctx, sessionID, reason, source, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TransitionResult), args.Error(1)
}

func (m *MockPaymentService) Expire(ctx context.Context, sessionID, source string) (*repository.TransitionResult, error) {
	args := m.Called(ctx, sessionID, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TransitionResult), args.Error(1)
}

func (m *MockPaymentService) Reconcile(ctx context.Context, sessionID, source string) (*service.ReconcileResult, error) {
	args := m.Called(ctx, sessionID, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReconcileResult), args.Error(1)
}

func (m *MockPaymentService) RecoverStuck(ctx context.Context, opts service.RecoverOptions) (*model.SweepReport, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SweepReport), args.Error(1)
}

func (m *MockPaymentService) ExpireSessions(ctx context.Context, limit int, source string) (*model.SweepReport, error) {
	args := m.Called(ctx, limit, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SweepReport), args.Error(1)
}

func (m *MockPaymentService) ListSessions(ctx context.Context, status string, limit, offset int) (*service.ListResult[model.PaymentSession], error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.PaymentSession]), args.Error(1)
}

func (m *MockPaymentService) GetSession(ctx context.Context, id string) (*model.PaymentSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentSession), args.Error(1)
}

func (m *MockPaymentService) ListLogs(ctx context.Context, sessionID string) ([]model.PaymentLog, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PaymentLog), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendOrderConfirmation(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockNotificationService) SendAdminNewOrder(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockNotificationService) ResendConfirmation(ctx context.Context, idOrNumber string) (*model.Order, error) {
	args := m.Called(ctx, idOrNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}
