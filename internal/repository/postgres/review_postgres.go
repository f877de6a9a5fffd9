package postgres

import (
	"context"
	"database/sql"

	"shopapi/internal/model"
	"shopapi/internal/repository"
)

// ReviewPostgres is a PostgreSQL implementation of repository.ReviewRepository.
type ReviewPostgres struct {
	db *sql.DB
}

func NewReviewPostgres(db *sql.DB) *ReviewPostgres {
	return &ReviewPostgres{db: db}
}

var _ repository.ReviewRepository = (*ReviewPostgres)(nil)

const reviewSelect = `
	SELECT rv.id, rv.product_id, rv.user_id, COALESCE(NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''), 'Customer'),
		rv.rating, rv.title, rv.body, rv.is_verified_purchase, rv.created_at
	FROM reviews rv
	LEFT JOIN users u ON u.id = rv.user_id
`

func (r *ReviewPostgres) page(ctx context.Context, countQ, listQ string, args []any, pq repository.PageQuery) (*repository.PageResult[model.Review], error) {
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, listQ, append(args, pq.Limit, pq.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Review, 0)
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.AuthorName, &rv.Rating, &rv.Title, &rv.Body, &rv.IsVerifiedPurchase, &rv.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Review]{Items: items, Total: total}, nil
}

// ListByProduct returns a product's reviews, newest first.
func (r *ReviewPostgres) ListByProduct(ctx context.Context, productID string, pq repository.PageQuery) (*repository.PageResult[model.Review], error) {
	return r.page(ctx,
		`SELECT COUNT(*) FROM reviews WHERE product_id = $1`,
		reviewSelect+` WHERE rv.product_id = $1 ORDER BY rv.created_at DESC, rv.id DESC LIMIT $2 OFFSET $3`,
		[]any{productID}, pq)
}

func (r *ReviewPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Review], error) {
	return r.page(ctx,
		`SELECT COUNT(*) FROM reviews`,
		reviewSelect+` ORDER BY rv.created_at DESC, rv.id DESC LIMIT $1 OFFSET $2`,
		nil, pq)
}

func (r *ReviewPostgres) Create(ctx context.Context, rv *model.Review) (*model.Review, error) {
	const q = `
		INSERT INTO reviews (product_id, user_id, rating, title, body, is_verified_purchase)
		VALUES ($1, $2, $3, $4, $5, EXISTS (
			SELECT 1 FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.user_id = $2 AND oi.product_id = $1 AND o.payment_status = 'paid'
		))
		RETURNING id, is_verified_purchase, created_at
	`
	out := *rv
	if err := r.db.QueryRowContext(ctx, q, rv.ProductID, rv.UserID, rv.Rating, rv.Title, rv.Body).
		Scan(&out.ID, &out.IsVerifiedPurchase, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ReviewPostgres) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
