package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopapi/internal/cache"
	"shopapi/internal/model"
	"shopapi/internal/repository"
	"shopapi/internal/sqlerr"
)

const reviewUniqueConstraint = "unique_reviews_product_user"

// ReviewInput is what a customer submits about a product.
type ReviewInput struct {
	Rating int
	Title  string
	Body   string
}

type ReviewService interface {
	ListByProduct(ctx context.Context, productID string, limit, offset int) (*ListResult[model.Review], error)
	// Create rejects a second review of the same product by the same user with ErrAlreadyReviewed.
	Create(ctx context.Context, userID, productID string, in ReviewInput) (*model.Review, error)
	List(ctx context.Context, limit, offset int) (*ListResult[model.Review], error)
	Delete(ctx context.Context, id string) error
}

type reviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	cache    cache.Cache
	log      zerolog.Logger
}

func NewReviewService(reviews repository.ReviewRepository, products repository.ProductRepository, c cache.Cache, log zerolog.Logger) ReviewService {
	return &reviewService{reviews: reviews, products: products, cache: c, log: componentLogger(log, "reviews")}
}

func (s *reviewService) ListByProduct(ctx context.Context, productID string, limit, offset int) (*ListResult[model.Review], error) {
	if productID == "" {
		return nil, ErrIDRequired
	}
	if _, err := uuid.Parse(productID); err != nil {
		return nil, ErrProductNotFound
	}
	pq := pageQuery(limit, offset)
	res, err := s.reviews.ListByProduct(ctx, productID, pq)
	if err != nil {
		return nil, err
	}
	return listResult(res, pq), nil
}

func (s *reviewService) Create(ctx context.Context, userID, productID string, in ReviewInput) (*model.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
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

	r, err := s.reviews.Create(ctx, &model.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    in.Rating,
		Title:     strings.TrimSpace(in.Title),
		Body:      strings.TrimSpace(in.Body),
	})
	if err != nil {
		if sqlerr.IsUniqueViolation(err, reviewUniqueConstraint) {
			return nil, ErrAlreadyReviewed
		}
		return nil, err
	}
	// Product detail responses carry the rating summary.
	invalidateCatalog(ctx, s.cache, s.log)
	return r, nil
}

func (s *reviewService) List(ctx context.Context, limit, offset int) (*ListResult[model.Review], error) {
	pq := pageQuery(limit, offset)
	res, err := s.reviews.List(ctx, pq)
	if err != nil {
		return nil, err
	}
	return listResult(res, pq), nil
}

func (s *reviewService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrReviewNotFound
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		if sqlerr.IsNoRows(err) {
			return ErrReviewNotFound
		}
		return err
	}
	invalidateCatalog(ctx, s.cache, s.log)
	return nil
}
