package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shopapi/internal/model"
	"shopapi/internal/repository"
	repoMocks "shopapi/internal/repository/mocks"
)

const testItemID = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"

func TestCartService_AddItem(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		productID  string
		qty        int
		setupMocks func(c *repoMocks.MockCartRepository, p *repoMocks.MockProductRepository)
		wantErr    error
	}{
		{
			name:      "adds capped at stock",
			productID: testProductID,
			qty:       3,
			setupMocks: func(c *repoMocks.MockCartRepository, p *repoMocks.MockProductRepository) {
				p.On("FindByID", ctx, testProductID).Return(&model.Product{ID: testProductID, IsActive: true, Stock: 5}, nil)
				c.On("AddItem", ctx, testUser, testProductID, 3, 5).Return(&model.CartItem{ID: testItemID, Quantity: 3}, nil)
			},
		},
		{
			name:       "zero quantity",
			productID:  testProductID,
			qty:        0,
			setupMocks: func(c *repoMocks.MockCartRepository, p *repoMocks.MockProductRepository) {},
			wantErr:    ErrInvalidQuantity,
		},
		{
			name:       "malformed product id",
			productID:  "abc",
			qty:        1,
			setupMocks: func(c *repoMocks.MockCartRepository, p *repoMocks.MockProductRepository) {},
			wantErr:    ErrProductNotFound,
		},
		{
			name:      "unknown product",
			productID: testProductID,
			qty:       1,
			setupMocks: func(c *repoMocks.MockCartRepository, p *repoMocks.MockProductRepository) {
				p.On("FindByID", ctx, testProductID).Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrProductNotFound,
		},
		{
			name:      "out of stock",
			productID: testProductID,
			qty:       1,
			setupMocks: func(c *repoMocks.MockCartRepository, p *repoMocks.MockProductRepository) {
				p.On("FindByID", ctx, testProductID).Return(&model.Product{ID: testProductID, IsActive: true, Stock: 0}, nil)
			},
			wantErr: ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carts := new(repoMocks.MockCartRepository)
			products := new(repoMocks.MockProductRepository)
			tt.setupMocks(carts, products)

			item, err := NewCartService(carts, products).AddItem(ctx, testUser, tt.productID, tt.qty)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, testItemID, item.ID)
			}
			carts.AssertExpectations(t)
			products.AssertExpectations(t)
		})
	}
}

func TestCartService_UpdateItem(t *testing.T) {
	ctx := context.Background()

	t.Run("quantity above stock is capped", func(t *testing.T) {
		carts := new(repoMocks.MockCartRepository)
		carts.On("FindItem", ctx, testUser, testItemID).Return(&model.CartItem{ID: testItemID, Stock: 2, IsActive: true, Quantity: 1}, nil)
		carts.On("SetQuantity", ctx, testUser, testItemID, 2).Return(nil)

		item, err := NewCartService(carts, nil).UpdateItem(ctx, testUser, testItemID, 9)
		require.NoError(t, err)
		assert.Equal(t, 2, item.Quantity)
		carts.AssertExpectations(t)
	})

	t.Run("zero removes the line", func(t *testing.T) {
		carts := new(repoMocks.MockCartRepository)
		carts.On("RemoveItem", ctx, testUser, testItemID).Return(nil)

		item, err := NewCartService(carts, nil).UpdateItem(ctx, testUser, testItemID, 0)
		require.NoError(t, err)
		assert.Nil(t, item)
		carts.AssertExpectations(t)
	})

	t.Run("negative", func(t *testing.T) {
		_, err := NewCartService(nil, nil).UpdateItem(ctx, testUser, testItemID, -1)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("someone else's line", func(t *testing.T) {
		carts := new(repoMocks.MockCartRepository)
		carts.On("FindItem", ctx, testUser, testItemID).Return(nil, sql.ErrNoRows)

		_, err := NewCartService(carts, nil).UpdateItem(ctx, testUser, testItemID, 1)
		assert.ErrorIs(t, err, ErrCartItemNotFound)
	})

	t.Run("product withdrawn", func(t *testing.T) {
		carts := new(repoMocks.MockCartRepository)
		carts.On("FindItem", ctx, testUser, testItemID).Return(&model.CartItem{ID: testItemID, Stock: 3, IsActive: false}, nil)

		_, err := NewCartService(carts, nil).UpdateItem(ctx, testUser, testItemID, 1)
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})
}

func TestCartService_RemoveItem_NotFound(t *testing.T) {
	ctx := context.Background()
	carts := new(repoMocks.MockCartRepository)
	carts.On("RemoveItem", ctx, testUser, testItemID).Return(sql.ErrNoRows)

	err := NewCartService(carts, nil).RemoveItem(ctx, testUser, testItemID)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
	assert.ErrorIs(t, NewCartService(carts, nil).RemoveItem(ctx, testUser, "x"), ErrCartItemNotFound)
}

func TestCartService_Sync(t *testing.T) {
	ctx := context.Background()
	carts := new(repoMocks.MockCartRepository)
	carts.On("Merge", ctx, testUser, []repository.CartLine{{ProductID: testProductID, Quantity: 2}}).Return(nil)
	carts.On("ListItems", ctx, testUser).Return([]model.CartItem{
		{ID: testItemID, ProductID: testProductID, UnitPrice: decimal.NewFromInt(1500), Quantity: 2, Stock: 9, IsActive: true},
	}, nil)

	cart, err := NewCartService(carts, nil).Sync(ctx, testUser, []repository.CartLine{
		{ProductID: testProductID, Quantity: 2},
		{ProductID: "", Quantity: 1},
		{ProductID: testProductID, Quantity: 0},
	})
	require.NoError(t, err)
	assert.True(t, cart.Subtotal.Equal(decimal.NewFromInt(3000)))
	carts.AssertExpectations(t)
}

func TestCartService_Sync_NothingToMerge(t *testing.T) {
	ctx := context.Background()
	carts := new(repoMocks.MockCartRepository)
	carts.On("ListItems", ctx, testUser).Return([]model.CartItem{}, nil)

	cart, err := NewCartService(carts, nil).Sync(ctx, testUser, nil)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	carts.AssertNotCalled(t, "Merge", mock.Anything, mock.Anything, mock.Anything)
}
