package postgres

import (
	"context"
	"database/sql"

	"shopapi/internal/model"
	"shopapi/internal/repository"
)

// CartPostgres is a PostgreSQL implementation of repository.CartRepository.
type CartPostgres struct {
	db *sql.DB
}

func NewCartPostgres(db *sql.DB) *CartPostgres {
	return &CartPostgres{db: db}
}

var _ repository.CartRepository = (*CartPostgres)(nil)

const cartSelect = `
	SELECT ci.id, ci.user_id, ci.product_id, p.name, p.slug, COALESCE(p.image_urls[1], ''),
		p.price, p.stock, p.is_active, ci.quantity
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
`

func scanCartItem(row rowScanner) (*model.CartItem, error) {
	var it model.CartItem
	if err := row.Scan(&it.ID, &it.UserID, &it.ProductID, &it.ProductName, &it.ProductSlug, &it.ImageURL,
		&it.UnitPrice, &it.Stock, &it.IsActive, &it.Quantity); err != nil {
		return nil, err
	}
	return &it, nil
}

// ListItems returns the cart joined with current product data, oldest line first.
func (r *CartPostgres) ListItems(ctx context.Context, userID string) ([]model.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, cartSelect+` WHERE ci.user_id = $1 ORDER BY ci.created_at ASC, ci.id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.CartItem, 0)
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func (r *CartPostgres) AddItem(ctx context.Context, userID, productID string, qty, maxQty int) (*model.CartItem, error) {
	const q = `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, LEAST($3::int, $4::int))
		ON CONFLICT (user_id, product_id) DO UPDATE
			SET quantity = LEAST(cart_items.quantity + EXCLUDED.quantity, $4::int), updated_at = now()
		RETURNING id
	`
	var id string
	if err := r.db.QueryRowContext(ctx, q, userID, productID, qty, maxQty).Scan(&id); err != nil {
		return nil, err
	}
	return r.FindItem(ctx, userID, id)
}

func (r *CartPostgres) FindItem(ctx context.Context, userID, itemID string) (*model.CartItem, error) {
	return scanCartItem(r.db.QueryRowContext(ctx, cartSelect+` WHERE ci.id = $1 AND ci.user_id = $2`, itemID, userID))
}

func (r *CartPostgres) SetQuantity(ctx context.Context, userID, itemID string, qty int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $3, updated_at = now() WHERE id = $1 AND user_id = $2`, itemID, userID, qty)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *CartPostgres) RemoveItem(ctx context.Context, userID, itemID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *CartPostgres) Clear(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

func (r *CartPostgres) Merge(ctx context.Context, userID string, lines []repository.CartLine) error {
	const q = `
		INSERT INTO cart_items (user_id, product_id, quantity)
		SELECT $1, p.id, LEAST($3::int, p.stock)
		FROM products p
		WHERE p.id = $2 AND p.is_active AND p.stock > 0
		ON CONFLICT (user_id, product_id) DO UPDATE
			SET quantity = LEAST(
				GREATEST(cart_items.quantity, EXCLUDED.quantity),
				(SELECT stock FROM products WHERE id = EXCLUDED.product_id)
			), updated_at = now()
	`
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, l := range lines {
			if l.Quantity <= 0 {
				continue
			}
			if _, err := tx.ExecContext(ctx, q, userID, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}
