package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopapi/internal/model"
	"shopapi/internal/repository"
	"shopapi/internal/sqlerr"
)

// OrderMailer renders and sends order emails. *mailer.Mailer implements it.
type OrderMailer interface {
	SendOrderConfirmation(ctx context.Context, o *model.Order) error
	SendAdminNewOrder(ctx context.Context, o *model.Order) error
}

// NotificationService sends the emails that follow a completed payment.
type NotificationService interface {
	SendOrderConfirmation(ctx context.Context, orderID string) error
	SendAdminNewOrder(ctx context.Context, orderID string) error
	// ResendConfirmation queues another confirmation for a paid order, looked up by id or order number.
	ResendConfirmation(ctx context.Context, idOrNumber string) (*model.Order, error)
}

type notificationService struct {
	orders repository.OrderRepository
	mailer OrderMailer
	queue  TaskQueue
	log    zerolog.Logger
}

func NewNotificationService(orders repository.OrderRepository, mailer OrderMailer, queue TaskQueue, log zerolog.Logger) NotificationService {
	return &notificationService{orders: orders, mailer: mailer, queue: queue, log: componentLogger(log, "notifications")}
}

func (s *notificationService) paidOrder(ctx context.Context, idOrNumber string) (*model.Order, error) {
	var (
		o   *model.Order
		err error
	)
	if strings.HasPrefix(strings.ToUpper(idOrNumber), "ORD-") {
		o, err = s.orders.FindByNumber(ctx, strings.ToUpper(idOrNumber))
	} else if _, perr := uuid.Parse(idOrNumber); perr != nil {
		return nil, ErrOrderNotFound
	} else {
		o, err = s.orders.FindByID(ctx, idOrNumber)
	}
	if err != nil {
		if sqlerr.IsNoRows(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if o.PaymentStatus != model.PaymentPaid || o.Status == model.OrderCancelled {
		return nil, ErrOrderNotPaid
	}
	return o, nil
}

func (s *notificationService) SendOrderConfirmation(ctx context.Context, orderID string) error {
	o, err := s.paidOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return s.mailer.SendOrderConfirmation(ctx, o)
}

func (s *notificationService) SendAdminNewOrder(ctx context.Context, orderID string) error {
	o, err := s.paidOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return s.mailer.SendAdminNewOrder(ctx, o)
}

func (s *notificationService) ResendConfirmation(ctx context.Context, idOrNumber string) (*model.Order, error) {
	if idOrNumber == "" {
		return nil, ErrIDRequired
	}
	o, err := s.paidOrder(ctx, idOrNumber)
	if err != nil {
		return nil, err
	}
	if err := s.queue.EnqueueConfirmation(ctx, o.ID); err != nil {
		return nil, err
	}
	s.log.Info().Str("order_number", o.OrderNumber).Msg("order confirmation queued for resend")
	return o, nil
}
