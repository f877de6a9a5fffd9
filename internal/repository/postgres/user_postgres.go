package postgres

import (
	"context"
	"database/sql"

	"shopapi/internal/model"
	"shopapi/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userColumns = `id, email, first_name, last_name, phone, role, created_at, updated_at`

func scanUser(row rowScanner, extra ...any) (*model.User, error) {
	var u model.User
	dest := []any{&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &u, nil
}

// Upsert mirrors the identity provider's view of a user. Empty phone numbers do not erase stored ones.
func (r *UserPostgres) Upsert(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, email, first_name, last_name, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = COALESCE(NULLIF(EXCLUDED.phone, ''), users.phone),
			role = CASE WHEN users.role = 'admin' THEN 'admin' ELSE EXCLUDED.role END,
			updated_at = now()
		RETURNING ` + userColumns
	role := u.Role
	if role == "" {
		role = model.RoleCustomer
	}
	return scanUser(r.db.QueryRowContext(ctx, q, u.ID, u.Email, u.FirstName, u.LastName, u.Phone, role))
}

func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// List returns users, newest first, with their number of orders.
func (r *UserPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.User], error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, err
	}

	const q = `
		SELECT u.id, u.email, u.first_name, u.last_name, u.phone, u.role, u.created_at, u.updated_at,
			(SELECT COUNT(*) FROM orders o WHERE o.user_id = u.id)
		FROM users u
		ORDER BY u.created_at DESC, u.id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, q, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.User, 0)
	for rows.Next() {
		var count int
		u, err := scanUser(rows, &count)
		if err != nil {
			return nil, err
		}
		u.OrderCount = count
		items = append(items, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.User]{Items: items, Total: total}, nil
}
