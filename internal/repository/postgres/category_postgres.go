package postgres

import (
	"context"
	"database/sql"

	"shopapi/internal/model"
	"shopapi/internal/repository"
)

// CategoryPostgres is a PostgreSQL implementation of repository.CategoryRepository.
type CategoryPostgres struct {
	db *sql.DB
}

func NewCategoryPostgres(db *sql.DB) *CategoryPostgres {
	return &CategoryPostgres{db: db}
}

var _ repository.CategoryRepository = (*CategoryPostgres)(nil)

func (r *CategoryPostgres) List(ctx context.Context) ([]model.Category, error) {
	const q = `
		SELECT c.id, c.name, c.slug, c.description, c.image_url, c.created_at, c.updated_at,
			COUNT(p.id) FILTER (WHERE p.is_active)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id
		ORDER BY c.name ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.CreatedAt, &c.UpdatedAt, &c.ProductCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryPostgres) FindByID(ctx context.Context, id string) (*model.Category, error) {
	const q = `
		SELECT id, name, slug, description, image_url, created_at, updated_at
		FROM categories
		WHERE id = $1
	`
	var c model.Category
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryPostgres) Create(ctx context.Context, c *model.Category) (*model.Category, error) {
	const q = `
		INSERT INTO categories (name, slug, description, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	out := *c
	if err := r.db.QueryRowContext(ctx, q, c.Name, c.Slug, c.Description, c.ImageURL).Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CategoryPostgres) Update(ctx context.Context, c *model.Category) (*model.Category, error) {
	const q = `
		UPDATE categories SET name = $2, slug = $3, description = $4, image_url = $5, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	out := *c
	if err := r.db.QueryRowContext(ctx, q, c.ID, c.Name, c.Slug, c.Description, c.ImageURL).Scan(&out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a category. Its products keep existing with a NULL category.
func (r *CategoryPostgres) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
