package service

import (
	"context"

	"github.com/google/uuid"

	"shopapi/internal/model"
	"shopapi/internal/repository"
	"shopapi/internal/sqlerr"
)

// CartService manages the server-side cart of a signed-in user.
type CartService interface {
	Get(ctx context.Context, userID string) (*model.Cart, error)
	// AddItem accumulates qty on the product's line, capped at available stock.
	AddItem(ctx context.Context, userID, productID string, qty int) (*model.CartItem, error)
	// UpdateItem sets the quantity of a line; zero removes it and returns nil.
	UpdateItem(ctx context.Context, userID, itemID string, qty int) (*model.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
	// Sync merges a guest cart into the stored cart and returns the result.
	Sync(ctx context.Context, userID string, lines []repository.CartLine) (*model.Cart, error)
}

type cartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) CartService {
	return &cartService{carts: carts, products: products}
}

func (s *cartService) Get(ctx context.Context, userID string) (*model.Cart, error) {
	items, err := s.carts.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	return model.NewCart(items), nil
}

func (s *cartService) AddItem(ctx context.Context, userID, productID string, qty int) (*model.CartItem, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	if productID == "" {
		return nil, ErrIDRequired
	}
	if _, err := uuid.Parse(productID); err != nil {
		return nil, ErrProductNotFound
	}
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if sqlerr.IsNoRows(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrProductNotFound
	}
	if p.Stock <= 0 {
		return nil, ErrInsufficientStock
	}
	return s.carts.AddItem(ctx, userID, productID, qty, p.Stock)
}

func (s *cartService) UpdateItem(ctx context.Context, userID, itemID string, qty int) (*model.CartItem, error) {
	if qty < 0 {
		return nil, ErrInvalidQuantity
	}
	if qty == 0 {
		return nil, s.RemoveItem(ctx, userID, itemID)
	}
	if _, err := uuid.Parse(itemID); err != nil {
		return nil, ErrCartItemNotFound
	}
	item, err := s.carts.FindItem(ctx, userID, itemID)
	if err != nil {
		if sqlerr.IsNoRows(err) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	if !item.IsActive || item.Stock <= 0 {
		return nil, ErrInsufficientStock
	}
	if qty > item.Stock {
		qty = item.Stock
	}
	if err := s.carts.SetQuantity(ctx, userID, itemID, qty); err != nil {
		if sqlerr.IsNoRows(err) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	item.Quantity = qty
	return item, nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID string) error {
	if _, err := uuid.Parse(itemID); err != nil {
		return ErrCartItemNotFound
	}
	if err := s.carts.RemoveItem(ctx, userID, itemID); err != nil {
		if sqlerr.IsNoRows(err) {
			return ErrCartItemNotFound
		}
		return err
	}
	return nil
}

func (s *cartService) Clear(ctx context.Context, userID string) error {
	return s.carts.Clear(ctx, userID)
}

func (s *cartService) Sync(ctx context.Context, userID string, lines []repository.CartLine) (*model.Cart, error) {
	valid := make([]repository.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity <= 0 {
			continue
		}
		valid = append(valid, l)
	}
	if len(valid) > 0 {
		if err := s.carts.Merge(ctx, userID, valid); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, userID)
}
