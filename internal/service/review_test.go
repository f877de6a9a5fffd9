package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cacheMocks "shopapi/internal/cache/mocks"
	"shopapi/internal/model"
	repoMocks "shopapi/internal/repository/mocks"
)

func TestReviewService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		in         ReviewInput
		setupMocks func(r *repoMocks.MockReviewRepository, p *repoMocks.MockProductRepository, c *cacheMocks.MockCache)
		wantErr    error
	}{
		{
			name: "created and catalog invalidated",
			in:   ReviewInput{Rating: 5, Title: " Great ", Body: "Lovely fabric"},
			setupMocks: func(r *repoMocks.MockReviewRepository, p *repoMocks.MockProductRepository, c *cacheMocks.MockCache) {
				p.On("FindByID", ctx, testProductID).Return(&model.Product{ID: testProductID, IsActive: true}, nil)
				r.On("Create", ctx, mock.MatchedBy(func(rv *model.Review) bool {
					return rv.Title == "Great" && rv.UserID == testUser && rv.Rating == 5
				})).Return(&model.Review{ID: "r1"}, nil)
				c.On("DeletePrefix", ctx, catalogPrefix).Return(nil)
			},
		},
		{
			name:       "rating out of range",
			in:         ReviewInput{Rating: 6},
			setupMocks: func(r *repoMocks.MockReviewRepository, p *repoMocks.MockProductRepository, c *cacheMocks.MockCache) {},
			wantErr:    ErrInvalidRating,
		},
		{
			name: "unknown product",
			in:   ReviewInput{Rating: 3},
			setupMocks: func(r *repoMocks.MockReviewRepository, p *repoMocks.MockProductRepository, c *cacheMocks.MockCache) {
				p.On("FindByID", ctx, testProductID).Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrProductNotFound,
		},
		{
			name: "second review",
			in:   ReviewInput{Rating: 4},
			setupMocks: func(r *repoMocks.MockReviewRepository, p *repoMocks.MockProductRepository, c *cacheMocks.MockCache) {
				p.On("FindByID", ctx, testProductID).Return(&model.Product{ID: testProductID, IsActive: true}, nil)
				r.On("Create", ctx, mock.Anything).Return(nil, &pgconn.PgError{Code: "23505", ConstraintName: reviewUniqueConstraint})
			},
			wantErr: ErrAlreadyReviewed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reviews := new(repoMocks.MockReviewRepository)
			products := new(repoMocks.MockProductRepository)
			c := new(cacheMocks.MockCache)
			tt.setupMocks(reviews, products, c)

			svc := NewReviewService(reviews, products, c, zerolog.Nop())
			r, err := svc.Create(ctx, testUser, testProductID, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "r1", r.ID)
			}
			reviews.AssertExpectations(t)
			products.AssertExpectations(t)
			c.AssertExpectations(t)
		})
	}
}

func TestReviewService_Delete(t *testing.T) {
	ctx := context.Background()
	reviews := new(repoMocks.MockReviewRepository)
	reviews.On("Delete", ctx, testItemID).Return(sql.ErrNoRows)

	svc := NewReviewService(reviews, nil, nil, zerolog.Nop())
	assert.ErrorIs(t, svc.Delete(ctx, testItemID), ErrReviewNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, ""), ErrIDRequired)
	assert.ErrorIs(t, svc.Delete(ctx, "r1"), ErrReviewNotFound)
}
