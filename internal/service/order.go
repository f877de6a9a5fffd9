package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"shopapi/internal/model"
	"shopapi/internal/repository"
	"shopapi/internal/sqlerr"
)

type OrderService interface {
	ListMine(ctx context.Context, userID string, limit, offset int) (*ListResult[model.Order], error)
	// GetMine hides orders of other users behind ErrOrderNotFound.
	GetMine(ctx context.Context, userID, id string) (*model.Order, error)
	List(ctx context.Context, status, search string, limit, offset int) (*ListResult[model.Order], error)
	Get(ctx context.Context, id string) (*model.Order, error)
	// UpdateStatus moves an order along the fulfilment workflow. Orders only become
	// paid through a completed payment session.
	UpdateStatus(ctx context.Context, id string, to model.OrderStatus) (*model.Order, error)
}

type orderService struct {
	orders repository.OrderRepository
}

func NewOrderService(orders repository.OrderRepository) OrderService {
	return &orderService{orders: orders}
}

func (s *orderService) ListMine(ctx context.Context, userID string, limit, offset int) (*ListResult[model.Order], error) {
	pq := pageQuery(limit, offset)
	res, err := s.orders.ListByUser(ctx, userID, pq)
	if err != nil {
		return nil, err
	}
	return listResult(res, pq), nil
}

func (s *orderService) GetMine(ctx context.Context, userID, id string) (*model.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *orderService) List(ctx context.Context, status, search string, limit, offset int) (*ListResult[model.Order], error) {
	if status != "" && !model.OrderStatus(status).Valid() {
		return nil, ErrInvalidStatus
	}
	pq := pageQuery(limit, offset)
	res, err := s.orders.List(ctx, repository.OrderFilter{Status: status, Search: strings.TrimSpace(search), PageQuery: pq})
	if err != nil {
		return nil, err
	}
	return listResult(res, pq), nil
}

func (s *orderService) Get(ctx context.Context, id string) (*model.Order, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrOrderNotFound
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if sqlerr.IsNoRows(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id string, to model.OrderStatus) (*model.Order, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if to == model.OrderPaid || !o.Status.CanTransitionTo(to) {
		return nil, ErrInvalidTransition
	}
	if err := s.orders.UpdateStatus(ctx, id, o.Status, to); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	return s.Get(ctx, id)
}
