package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cacheMocks "shopapi/internal/cache/mocks"
	"shopapi/internal/model"
	repoMocks "shopapi/internal/repository/mocks"
	"shopapi/internal/storage"
	storageMocks "shopapi/internal/storage/mocks"
)

type adminFixture struct {
	products   *repoMocks.MockProductRepository
	categories *repoMocks.MockCategoryRepository
	stats      *repoMocks.MockStatsRepository
	store      *storageMocks.MockStorage
	cache      *cacheMocks.MockCache
	svc        AdminService
}

func newAdminFixture(withStore bool) *adminFixture {
	f := &adminFixture{
		products:   new(repoMocks.MockProductRepository),
		categories: new(repoMocks.MockCategoryRepository),
		stats:      new(repoMocks.MockStatsRepository),
		store:      new(storageMocks.MockStorage),
		cache:      new(cacheMocks.MockCache),
	}
	d := AdminDeps{
		Products:          f.products,
		Categories:        f.categories,
		Stats:             f.stats,
		Cache:             f.cache,
		LowStockThreshold: 5,
		Logger:            zerolog.Nop(),
	}
	if withStore {
		d.Store = f.store
	}
	f.svc = NewAdminService(d)
	return f
}

func TestAdminService_UploadProductImage(t *testing.T) {
	ctx := context.Background()
	product := &model.Product{ID: testProductID, IsActive: true}

	tests := []struct {
		name       string
		reader     io.Reader
		setupMocks func(f *adminFixture)
		wantErr    string
	}{
		{
			name:   "success",
			reader: bytes.NewReader([]byte("img")),
			setupMocks: func(f *adminFixture) {
				f.products.On("FindByID", ctx, testProductID).Return(product, nil)
				f.store.On("Put", ctx, mock.MatchedBy(func(k string) bool {
					return strings.HasPrefix(k, "products/"+testProductID+"/") && strings.HasSuffix(k, ".jpg")
				}), mock.Anything, mock.MatchedBy(func(o storage.PutObjectOptions) bool {
					return o.ContentType == "image/jpeg" && o.Size == 3
				})).Return(func(_ context.Context, key string, _ io.Reader, _ storage.PutObjectOptions) storage.ObjectInfo {
					return storage.ObjectInfo{Key: key}
				}, nil)
				f.store.On("URL", ctx, mock.Anything).Return("http://cdn/products/x.jpg", nil)
				f.products.On("AppendImage", ctx, testProductID, "http://cdn/products/x.jpg").
					Return(&model.Product{ID: testProductID, ImageURLs: []string{"http://cdn/products/x.jpg"}}, nil)
				f.cache.On("DeletePrefix", ctx, catalogPrefix).Return(nil)
			},
		},
		{
			name:       "nil reader",
			reader:     nil,
			setupMocks: func(f *adminFixture) {},
			wantErr:    ErrReaderNil.Error(),
		},
		{
			name:   "storage failure",
			reader: bytes.NewReader([]byte("img")),
			setupMocks: func(f *adminFixture) {
				f.products.On("FindByID", ctx, testProductID).Return(product, nil)
				f.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, errors.New("bucket gone"))
			},
			wantErr: "upload to storage: bucket gone",
		},
		{
			name:   "db failure rolls back",
			reader: bytes.NewReader([]byte("img")),
			setupMocks: func(f *adminFixture) {
				f.products.On("FindByID", ctx, testProductID).Return(product, nil)
				f.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{Key: "k1"}, nil)
				f.store.On("URL", ctx, "k1").Return("http://cdn/k1", nil)
				f.products.On("AppendImage", ctx, testProductID, "http://cdn/k1").Return(nil, errors.New("db error"))
				f.store.On("Delete", ctx, "k1").Return(nil)
			},
			wantErr: "db save failed: db error",
		},
		{
			name:   "rollback failure is reported",
			reader: bytes.NewReader([]byte("img")),
			setupMocks: func(f *adminFixture) {
				f.products.On("FindByID", ctx, testProductID).Return(product, nil)
				f.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{Key: "k1"}, nil)
				f.store.On("URL", ctx, "k1").Return("http://cdn/k1", nil)
				f.products.On("AppendImage", ctx, testProductID, "http://cdn/k1").Return(nil, errors.New("db error"))
				f.store.On("Delete", ctx, "k1").Return(errors.New("delete error"))
			},
			wantErr: "db save failed: db error; rollback delete failed: delete error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAdminFixture(true)
			tt.setupMocks(f)

			p, err := f.svc.UploadProductImage(ctx, testProductID, ImageUpload{
				Reader:      tt.reader,
				Filename:    "photo.JPG",
				ContentType: "image/jpeg",
				Size:        3,
			})
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Len(t, p.ImageURLs, 1)
			}
			f.products.AssertExpectations(t)
			f.store.AssertExpectations(t)
			f.cache.AssertExpectations(t)
		})
	}
}

func TestAdminService_UploadProductImage_NoStorage(t *testing.T) {
	f := newAdminFixture(false)
	_, err := f.svc.UploadProductImage(context.Background(), testProductID, ImageUpload{Reader: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestAdminService_CreateProduct(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(false)
	f.products.On("Create", ctx, mock.MatchedBy(func(p *model.Product) bool {
		return p.Slug == "kanga-ya-pwani" && p.IsActive && p.Name == "Kanga ya Pwani"
	})).Return(&model.Product{ID: testProductID, Slug: "kanga-ya-pwani"}, nil)
	f.cache.On("DeletePrefix", ctx, catalogPrefix).Return(errors.New("redis down"))

	p, err := f.svc.CreateProduct(ctx, ProductInput{Name: " Kanga ya Pwani ", Price: decimal.NewFromInt(12000), Stock: 3})
	require.NoError(t, err)
	assert.Equal(t, testProductID, p.ID)
	f.products.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestAdminService_UpdateProduct(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(false)
	cat := "c1"
	f.products.On("FindByID", ctx, testProductID).
		Return(&model.Product{ID: testProductID, Name: "Old", CategoryID: &cat, Stock: 1, IsActive: true}, nil)
	f.products.On("Update", ctx, mock.MatchedBy(func(p *model.Product) bool {
		return p.Name == "New" && p.CategoryID == nil && p.Stock == 10 && p.IsActive
	})).Return(&model.Product{ID: testProductID, Name: "New", Stock: 10}, nil)
	f.cache.On("DeletePrefix", ctx, catalogPrefix).Return(nil)

	name, stock := "New", 10
	p, err := f.svc.UpdateProduct(ctx, testProductID, ProductPatch{Name: &name, Stock: &stock, ClearCategory: true})
	require.NoError(t, err)
	assert.Equal(t, "New", p.Name)
	f.products.AssertExpectations(t)
}

func TestAdminService_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(false)
	f.products.On("Deactivate", ctx, testProductID).Return(sql.ErrNoRows)

	assert.ErrorIs(t, f.svc.DeleteProduct(ctx, testProductID), ErrProductNotFound)
	assert.ErrorIs(t, f.svc.DeleteProduct(ctx, "nope"), ErrProductNotFound)
}

func TestAdminService_Categories(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(false)
	f.categories.On("Create", ctx, mock.MatchedBy(func(c *model.Category) bool {
		return c.Slug == "vitenge" && c.Name == "Vitenge"
	})).Return(&model.Category{ID: "c1", Slug: "vitenge"}, nil)
	f.categories.On("Delete", ctx, testProductID).Return(sql.ErrNoRows)
	f.cache.On("DeletePrefix", ctx, catalogPrefix).Return(nil)

	c, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "Vitenge"})
	require.NoError(t, err)
	assert.Equal(t, "vitenge", c.Slug)
	assert.ErrorIs(t, f.svc.DeleteCategory(ctx, testProductID), ErrCategoryNotFound)
	f.categories.AssertExpectations(t)
}

func TestAdminService_Stats(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(false)
	f.stats.On("Dashboard", ctx, 5, 10).Return(&model.DashboardStats{PaidOrders: 3}, nil)

	st, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.PaidOrders)
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Café Latté", "cafe-latte"},
		{"  Kanga & Kitenge ", "kanga-kitenge"},
		{"100% Cotton!!", "100-cotton"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}
