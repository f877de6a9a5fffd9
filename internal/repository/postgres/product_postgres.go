package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"shopapi/internal/model"
	"shopapi/internal/repository"
)

// ProductPostgres is a PostgreSQL implementation of repository.ProductRepository.
type ProductPostgres struct {
	db *sql.DB
}

func NewProductPostgres(db *sql.DB) *ProductPostgres {
	return &ProductPostgres{db: db}
}

var _ repository.ProductRepository = (*ProductPostgres)(nil)

const productColumns = `p.id, p.category_id, COALESCE(c.name, ''), p.name, p.slug, p.description,
	p.price, p.compare_at_price, p.stock, COALESCE(array_to_json(p.image_urls)::text, '[]'),
	p.is_active, p.is_featured, p.created_at, p.updated_at`

const productFrom = ` FROM products p LEFT JOIN categories c ON c.id = p.category_id`

const ratingColumns = `,
	COALESCE((SELECT AVG(rv.rating)::float8 FROM reviews rv WHERE rv.product_id = p.id), 0),
	(SELECT COUNT(*) FROM reviews rv WHERE rv.product_id = p.id)`

func scanProduct(row rowScanner, extra ...any) (*model.Product, error) {
	var (
		p        model.Product
		category sql.NullString
		compare  decimal.NullDecimal
		images   string
	)
	dest := []any{
		&p.ID,
		&category,
		&p.CategoryName,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Price,
		&compare,
		&p.Stock,
		&images,
		&p.IsActive,
		&p.IsFeatured,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	p.CategoryID = stringPtr(category)
	if compare.Valid {
		p.CompareAtPrice = &compare.Decimal
	}
	var err error
	if p.ImageURLs, err = parseTextArray(images); err != nil {
		return nil, err
	}
	return &p, nil
}

func productWhere(f repository.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !f.IncludeInactive {
		conds = append(conds, "p.is_active")
	}
	if f.CategorySlug != "" {
		add("c.slug = $%d", f.CategorySlug)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("to_tsvector('simple', p.name || ' ' || p.description) @@ plainto_tsquery('simple', $%d)", s)
	}
	if f.Featured != nil {
		add("p.is_featured = $%d", *f.Featured)
	}
	if f.MinPrice != nil {
		add("p.price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("p.price <= $%d", *f.MaxPrice)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func productOrder(sort string) string {
	switch sort {
	case repository.SortPriceAsc:
		return "p.price ASC, p.id ASC"
	case repository.SortPriceDesc:
		return "p.price DESC, p.id DESC"
	default:
		return "p.created_at DESC, p.id DESC"
	}
}

// List returns a filtered page of products and the total number of matches.
func (r *ProductPostgres) List(ctx context.Context, f repository.ProductFilter) (*repository.PageResult[model.Product], error) {
	where, args := productWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+productFrom+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	args = append(args, f.Limit, f.Offset)
	q := fmt.Sprintf("SELECT %s%s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		productColumns, productFrom, where, productOrder(f.Sort), len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Product]{Items: items, Total: total}, nil
}

func (r *ProductPostgres) findOne(ctx context.Context, cond string, arg any) (*model.Product, error) {
	q := "SELECT " + productColumns + ratingColumns + productFrom + " WHERE " + cond
	var rating model.RatingSummary
	p, err := scanProduct(r.db.QueryRowContext(ctx, q, arg), &rating.Average, &rating.Count)
	if err != nil {
		return nil, err
	}
	p.Rating = &rating
	return p, nil
}

func (r *ProductPostgres) FindByID(ctx context.Context, id string) (*model.Product, error) {
	return r.findOne(ctx, "p.id = $1", id)
}

func (r *ProductPostgres) FindBySlug(ctx context.Context, slug string) (*model.Product, error) {
	return r.findOne(ctx, "p.slug = $1", slug)
}

func compareAt(p *model.Product) decimal.NullDecimal {
	if p.CompareAtPrice == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *p.CompareAtPrice, Valid: true}
}

func categoryArg(id *string) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return nullString(*id)
}

// Create inserts a product and returns it with database generated fields.
func (r *ProductPostgres) Create(ctx context.Context, p *model.Product) (*model.Product, error) {
	const q = `
		INSERT INTO products (category_id, name, slug, description, price, compare_at_price, stock, image_urls, is_active, is_featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, ARRAY(SELECT jsonb_array_elements_text($8::jsonb)), $9, $10)
		RETURNING id, created_at, updated_at
	`
	out := *p
	err := r.db.QueryRowContext(ctx, q,
		categoryArg(p.CategoryID),
		p.Name,
		p.Slug,
		p.Description,
		p.Price,
		compareAt(p),
		p.Stock,
		textArray(p.ImageURLs),
		p.IsActive,
		p.IsFeatured,
	).Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if out.ImageURLs == nil {
		out.ImageURLs = []string{}
	}
	return &out, nil
}

// Update overwrites every editable column of the product.
func (r *ProductPostgres) Update(ctx context.Context, p *model.Product) (*model.Product, error) {
	const q = `
		UPDATE products SET
			category_id = $2, name = $3, slug = $4, description = $5, price = $6,
			compare_at_price = $7, stock = $8, image_urls = ARRAY(SELECT jsonb_array_elements_text($9::jsonb)),
			is_active = $10, is_featured = $11, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	out := *p
	err := r.db.QueryRowContext(ctx, q,
		p.ID,
		categoryArg(p.CategoryID),
		p.Name,
		p.Slug,
		p.Description,
		p.Price,
		compareAt(p),
		p.Stock,
		textArray(p.ImageURLs),
		p.IsActive,
		p.IsFeatured,
	).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ProductPostgres) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *ProductPostgres) AppendImage(ctx context.Context, id, url string) (*model.Product, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET image_urls = array_append(image_urls, $2), updated_at = now() WHERE id = $1`, id, url)
	if err != nil {
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}
