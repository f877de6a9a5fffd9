package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cacheMocks "shopapi/internal/cache/mocks"
	"shopapi/internal/model"
	"shopapi/internal/repository"
	repoMocks "shopapi/internal/repository/mocks"
)

const testProductID = "5d3c2b1a-0f9e-4d8c-b7a6-1234567890ab"

func TestCatalogService_ListProducts(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		filter     repository.ProductFilter
		setupMocks func(p *repoMocks.MockProductRepository, c *cacheMocks.MockCache)
		wantTotal  int
		wantErr    bool
	}{
		{
			name:   "cache hit skips the database",
			filter: repository.ProductFilter{},
			setupMocks: func(p *repoMocks.MockProductRepository, c *cacheMocks.MockCache) {
				c.On("Get", ctx, mock.AnythingOfType("string"), mock.Anything).Return(true, nil).Run(func(args mock.Arguments) {
					dest := args.Get(2).(*ListResult[model.Product])
					dest.Total = 7
				})
			},
			wantTotal: 7,
		},
		{
			name:   "cache miss loads and stores",
			filter: repository.ProductFilter{Sort: "bogus", IncludeInactive: true, PageQuery: repository.PageQuery{Limit: 500}},
			setupMocks: func(p *repoMocks.MockProductRepository, c *cacheMocks.MockCache) {
				c.On("Get", ctx, mock.Anything, mock.Anything).Return(false, nil)
				p.On("List", ctx, mock.MatchedBy(func(f repository.ProductFilter) bool {
					return !f.IncludeInactive && f.Sort == repository.SortNewest && f.Limit == 100
				})).Return(&repository.PageResult[model.Product]{Items: []model.Product{{ID: testProductID}}, Total: 1}, nil)
				c.On("Set", ctx, mock.Anything, mock.Anything, time.Minute).Return(nil)
			},
			wantTotal: 1,
		},
		{
			name:   "cache errors fall through",
			filter: repository.ProductFilter{},
			setupMocks: func(p *repoMocks.MockProductRepository, c *cacheMocks.MockCache) {
				c.On("Get", ctx, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
				p.On("List", ctx, mock.Anything).Return(&repository.PageResult[model.Product]{Total: 0}, nil)
				c.On("Set", ctx, mock.Anything, mock.Anything, time.Minute).Return(errors.New("redis down"))
			},
			wantTotal: 0,
		},
		{
			name:   "repository error",
			filter: repository.ProductFilter{},
			setupMocks: func(p *repoMocks.MockProductRepository, c *cacheMocks.MockCache) {
				c.On("Get", ctx, mock.Anything, mock.Anything).Return(false, nil)
				p.On("List", ctx, mock.Anything).Return(nil, errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := new(repoMocks.MockProductRepository)
			categories := new(repoMocks.MockCategoryRepository)
			c := new(cacheMocks.MockCache)
			tt.setupMocks(products, c)

			svc := NewCatalogService(products, categories, c, time.Minute, zerolog.Nop())
			res, err := svc.ListProducts(ctx, tt.filter)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantTotal, res.Total)
				assert.NotNil(t, res.Items)
			}
			products.AssertExpectations(t)
			c.AssertExpectations(t)
		})
	}
}

func TestCatalogService_GetProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("by id", func(t *testing.T) {
		products := new(repoMocks.MockProductRepository)
		products.On("FindByID", ctx, testProductID).Return(&model.Product{ID: testProductID, IsActive: true, Price: decimal.NewFromInt(100)}, nil)

		svc := NewCatalogService(products, nil, nil, 0, zerolog.Nop())
		p, err := svc.GetProduct(ctx, testProductID)
		require.NoError(t, err)
		assert.Equal(t, testProductID, p.ID)
		products.AssertExpectations(t)
	})

	t.Run("by slug", func(t *testing.T) {
		products := new(repoMocks.MockProductRepository)
		products.On("FindBySlug", ctx, "kitenge-red").Return(&model.Product{ID: testProductID, Slug: "kitenge-red", IsActive: true}, nil)

		svc := NewCatalogService(products, nil, nil, 0, zerolog.Nop())
		p, err := svc.GetProduct(ctx, "kitenge-red")
		require.NoError(t, err)
		assert.Equal(t, "kitenge-red", p.Slug)
	})

	t.Run("inactive is hidden", func(t *testing.T) {
		products := new(repoMocks.MockProductRepository)
		products.On("FindBySlug", ctx, "old").Return(&model.Product{ID: testProductID, IsActive: false}, nil)

		svc := NewCatalogService(products, nil, nil, 0, zerolog.Nop())
		_, err := svc.GetProduct(ctx, "old")
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		products := new(repoMocks.MockProductRepository)
		products.On("FindBySlug", ctx, "nope").Return(nil, sql.ErrNoRows)

		svc := NewCatalogService(products, nil, nil, 0, zerolog.Nop())
		_, err := svc.GetProduct(ctx, "nope")
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("empty", func(t *testing.T) {
		svc := NewCatalogService(nil, nil, nil, 0, zerolog.Nop())
		_, err := svc.GetProduct(ctx, "")
		assert.ErrorIs(t, err, ErrIDRequired)
	})
}

func TestCatalogService_ListCategories(t *testing.T) {
	ctx := context.Background()
	categories := new(repoMocks.MockCategoryRepository)
	c := new(cacheMocks.MockCache)
	c.On("Get", ctx, categoryListKey, mock.Anything).Return(false, nil)
	categories.On("List", ctx).Return([]model.Category{{ID: "c1", Name: "Fabrics"}}, nil)
	c.On("Set", ctx, categoryListKey, mock.Anything, 30*time.Second).Return(nil)

	svc := NewCatalogService(nil, categories, c, 30*time.Second, zerolog.Nop())
	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
	categories.AssertExpectations(t)
	c.AssertExpectations(t)
}
