package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopapi/internal/cache"
	"shopapi/internal/model"
	"shopapi/internal/repository"
	"shopapi/internal/sqlerr"
)

// Cache key prefixes. Every catalog write drops catalogPrefix.
const (
	catalogPrefix   = "catalog:"
	productListKey  = catalogPrefix + "products:"
	productKey      = catalogPrefix + "product:"
	categoryListKey = catalogPrefix + "categories"
)

// CatalogService serves the storefront product catalogue.
type CatalogService interface {
	// ListProducts returns active products only; IncludeInactive in the filter is ignored.
	ListProducts(ctx context.Context, f repository.ProductFilter) (*ListResult[model.Product], error)
	// GetProduct accepts either a product id or a slug.
	GetProduct(ctx context.Context, idOrSlug string) (*model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type catalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	cache      cache.Cache
	ttl        time.Duration
	log        zerolog.Logger
}

func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository,
	c cache.Cache, ttl time.Duration, log zerolog.Logger) CatalogService {
	if c == nil {
		c = cache.Nop{}
	}
	return &catalogService{
		products:   products,
		categories: categories,
		cache:      c,
		ttl:        ttl,
		log:        componentLogger(log, "catalog"),
	}
}

func (s *catalogService) ListProducts(ctx context.Context, f repository.ProductFilter) (*ListResult[model.Product], error) {
	f.IncludeInactive = false
	f.PageQuery = pageQuery(f.Limit, f.Offset)
	switch f.Sort {
	case repository.SortNewest, repository.SortPriceAsc, repository.SortPriceDesc:
	default:
		f.Sort = repository.SortNewest
	}

	key := productListKey + f.Key()
	var cached ListResult[model.Product]
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	res, err := s.products.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := listResult(res, f.PageQuery)
	s.toCache(ctx, key, out)
	return out, nil
}

func (s *catalogService) GetProduct(ctx context.Context, idOrSlug string) (*model.Product, error) {
	if idOrSlug == "" {
		return nil, ErrIDRequired
	}
	key := productKey + idOrSlug
	var cached model.Product
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	var (
		p   *model.Product
		err error
	)
	if _, perr := uuid.Parse(idOrSlug); perr == nil {
		p, err = s.products.FindByID(ctx, idOrSlug)
	} else {
		p, err = s.products.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if sqlerr.IsNoRows(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrProductNotFound
	}
	s.toCache(ctx, key, p)
	return p, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	var cached []model.Category
	if s.fromCache(ctx, categoryListKey, &cached) {
		return cached, nil
	}
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, categoryListKey, cats)
	return cats, nil
}

// Cache failures are logged and treated as misses.
func (s *catalogService) fromCache(ctx context.Context, key string, dest any) bool {
	if s.ttl <= 0 {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
		return false
	}
	return hit
}

func (s *catalogService) toCache(ctx context.Context, key string, v any) {
	if s.ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}

// invalidateCatalog drops every cached catalog response.
func invalidateCatalog(ctx context.Context, c cache.Cache, log zerolog.Logger) {
	if c == nil {
		return
	}
	if err := c.DeletePrefix(ctx, catalogPrefix); err != nil {
		log.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}
