package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"shopapi/internal/cache"
	"shopapi/internal/model"
	"shopapi/internal/repository"
	"shopapi/internal/sqlerr"
	"shopapi/internal/storage"
)

// ProductInput creates a product. Slug is derived from Name when empty.
type ProductInput struct {
	CategoryID     *string
	Name           string
	Slug           string
	Description    string
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	Stock          int
	IsActive       *bool
	IsFeatured     bool
}

// ProductPatch updates the fields that are set.
type ProductPatch struct {
	CategoryID     *string
	ClearCategory  bool
	Name           *string
	Slug           *string
	Description    *string
	Price          *decimal.Decimal
	CompareAtPrice *decimal.Decimal
	Stock          *int
	IsActive       *bool
	IsFeatured     *bool
}

// CategoryInput creates or replaces a category.
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	ImageURL    string
}

// ImageUpload is a product image streamed from a multipart form.
type ImageUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// AdminService holds the dashboard use cases that change the catalogue or read shop-wide data.
type AdminService interface {
	ListProducts(ctx context.Context, f repository.ProductFilter) (*ListResult[model.Product], error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, p ProductPatch) (*model.Product, error)
	// DeleteProduct hides the product; order history keeps referencing it.
	DeleteProduct(ctx context.Context, id string) error
	// UploadProductImage stores the image and appends its URL, removing the object again if the update fails.
	UploadProductImage(ctx context.Context, id string, img ImageUpload) (*model.Product, error)

	CreateCategory(ctx context.Context, in CategoryInput) (*model.Category, error)
	UpdateCategory(ctx context.Context, id string, in CategoryInput) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	Stats(ctx context.Context) (*model.DashboardStats, error)
}

type adminService struct {
	products          repository.ProductRepository
	categories        repository.CategoryRepository
	stats             repository.StatsRepository
	store             storage.Storage
	cache             cache.Cache
	lowStockThreshold int
	log               zerolog.Logger
}

// AdminDeps groups the collaborators of the admin service. Store may be nil when object storage is not configured.
type AdminDeps struct {
	Products          repository.ProductRepository
	Categories        repository.CategoryRepository
	Stats             repository.StatsRepository
	Store             storage.Storage
	Cache             cache.Cache
	LowStockThreshold int
	Logger            zerolog.Logger
}

func NewAdminService(d AdminDeps) AdminService {
	c := d.Cache
	if c == nil {
		c = cache.Nop{}
	}
	return &adminService{
		products:          d.Products,
		categories:        d.Categories,
		stats:             d.Stats,
		store:             d.Store,
		cache:             c,
		lowStockThreshold: d.LowStockThreshold,
		log:               componentLogger(d.Logger, "admin"),
	}
}

func (s *adminService) ListProducts(ctx context.Context, f repository.ProductFilter) (*ListResult[model.Product], error) {
	f.IncludeInactive = true
	f.PageQuery = pageQuery(f.Limit, f.Offset)
	res, err := s.products.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return listResult(res, f.PageQuery), nil
}

func (s *adminService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrProductNotFound
	}
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if sqlerr.IsNoRows(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *adminService) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(in.Name)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	p, err := s.products.Create(ctx, &model.Product{
		CategoryID:     in.CategoryID,
		Name:           strings.TrimSpace(in.Name),
		Slug:           slug,
		Description:    in.Description,
		Price:          in.Price,
		CompareAtPrice: in.CompareAtPrice,
		Stock:          in.Stock,
		ImageURLs:      []string{},
		IsActive:       active,
		IsFeatured:     in.IsFeatured,
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.log.Info().Str("product_id", p.ID).Str("slug", p.Slug).Msg("product created")
	return p, nil
}

func (s *adminService) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*model.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case patch.ClearCategory:
		p.CategoryID = nil
	case patch.CategoryID != nil:
		p.CategoryID = patch.CategoryID
	}
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Slug != nil {
		p.Slug = Slugify(*patch.Slug)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.CompareAtPrice != nil {
		p.CompareAtPrice = patch.CompareAtPrice
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if patch.IsFeatured != nil {
		p.IsFeatured = *patch.IsFeatured
	}

	out, err := s.products.Update(ctx, p)
	if err != nil {
		if sqlerr.IsNoRows(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *adminService) DeleteProduct(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrProductNotFound
	}
	if err := s.products.Deactivate(ctx, id); err != nil {
		if sqlerr.IsNoRows(err) {
			return ErrProductNotFound
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *adminService) UploadProductImage(ctx context.Context, id string, img ImageUpload) (*model.Product, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	if img.Reader == nil {
		return nil, ErrReaderNil
	}
	if _, err := s.GetProduct(ctx, id); err != nil {
		return nil, err
	}

	key := path.Join("products", id, uuid.NewString()+strings.ToLower(path.Ext(img.Filename)))
	obj, err := s.store.Put(ctx, key, img.Reader, storage.PutObjectOptions{
		Size:        img.Size,
		ContentType: img.ContentType,
		Metadata:    map[string]string{"original-filename": img.Filename},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}
	url, err := s.store.URL(ctx, obj.Key)
	if err == nil {
		var p *model.Product
		if p, err = s.products.AppendImage(ctx, id, url); err == nil {
			s.invalidate(ctx)
			return p, nil
		}
	}

	// Rollback: delete the object from storage.
	if delErr := s.store.Delete(ctx, obj.Key); delErr != nil {
		return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
	}
	return nil, fmt.Errorf("db save failed: %w", err)
}

func (s *adminService) CreateCategory(ctx context.Context, in CategoryInput) (*model.Category, error) {
	c, err := s.categories.Create(ctx, categoryModel(in))
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return c, nil
}

func (s *adminService) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*model.Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrCategoryNotFound
	}
	c := categoryModel(in)
	c.ID = id
	out, err := s.categories.Update(ctx, c)
	if err != nil {
		if sqlerr.IsNoRows(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *adminService) DeleteCategory(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrCategoryNotFound
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		if sqlerr.IsNoRows(err) {
			return ErrCategoryNotFound
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

func categoryModel(in CategoryInput) *model.Category {
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(in.Name)
	}
	return &model.Category{
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Description: in.Description,
		ImageURL:    in.ImageURL,
	}
}

func (s *adminService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	return s.stats.Dashboard(ctx, s.lowStockThreshold, 10)
}

func (s *adminService) invalidate(ctx context.Context) {
	invalidateCatalog(ctx, s.cache, s.log)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s, strips accents and joins words with dashes: "Café Latté" -> "cafe-latte".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(folded), "-"), "-")
}
