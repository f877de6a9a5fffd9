package postgres

import (
	"context"
	"database/sql"

	"shopapi/internal/model"
	"shopapi/internal/repository"
)

// AddressPostgres is a PostgreSQL implementation of repository.AddressRepository.
// At most one address per user is the default; unique_addresses_default_user_id enforces it.
type AddressPostgres struct {
	db *sql.DB
}

func NewAddressPostgres(db *sql.DB) *AddressPostgres {
	return &AddressPostgres{db: db}
}

var _ repository.AddressRepository = (*AddressPostgres)(nil)

const addressColumns = `id, user_id, full_name, phone, line1, line2, city, region, postal_code, country, is_default, created_at, updated_at`

func scanAddress(row rowScanner) (*model.Address, error) {
	var a model.Address
	if err := row.Scan(&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.Line1, &a.Line2, &a.City, &a.Region,
		&a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AddressPostgres) ListByUser(ctx context.Context, userID string) ([]model.Address, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AddressPostgres) FindByID(ctx context.Context, userID, id string) (*model.Address, error) {
	return scanAddress(r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, id, userID))
}

func clearDefault(ctx context.Context, tx repository.DBTX, userID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE addresses SET is_default = false, updated_at = now() WHERE user_id = $1 AND is_default`, userID)
	return err
}

func (r *AddressPostgres) Create(ctx context.Context, a *model.Address) (*model.Address, error) {
	var out *model.Address
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		makeDefault := a.IsDefault
		if !makeDefault {
			var n int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM addresses WHERE user_id = $1`, a.UserID).Scan(&n); err != nil {
				return err
			}
			makeDefault = n == 0
		}
		if makeDefault {
			if err := clearDefault(ctx, tx, a.UserID); err != nil {
				return err
			}
		}

		const q = `
			INSERT INTO addresses (user_id, full_name, phone, line1, line2, city, region, postal_code, country, is_default)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING ` + addressColumns
		var err error
		out, err = scanAddress(tx.QueryRowContext(ctx, q, a.UserID, a.FullName, a.Phone, a.Line1, a.Line2, a.City,
			a.Region, a.PostalCode, a.Country, makeDefault))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update changes the address fields. Setting IsDefault clears the previous default; clearing it is ignored.
func (r *AddressPostgres) Update(ctx context.Context, a *model.Address) (*model.Address, error) {
	var out *model.Address
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if a.IsDefault {
			if err := clearDefault(ctx, tx, a.UserID); err != nil {
				return err
			}
		}
		const q = `
			UPDATE addresses SET full_name = $3, phone = $4, line1 = $5, line2 = $6, city = $7, region = $8,
				postal_code = $9, country = $10, is_default = is_default OR $11, updated_at = now()
			WHERE id = $1 AND user_id = $2
			RETURNING ` + addressColumns
		var err error
		out, err = scanAddress(tx.QueryRowContext(ctx, q, a.ID, a.UserID, a.FullName, a.Phone, a.Line1, a.Line2,
			a.City, a.Region, a.PostalCode, a.Country, a.IsDefault))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the address. When it was the default, the user's oldest remaining address takes over.
func (r *AddressPostgres) Delete(ctx context.Context, userID, id string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var wasDefault bool
		if err := tx.QueryRowContext(ctx,
			`DELETE FROM addresses WHERE id = $1 AND user_id = $2 RETURNING is_default`, id, userID).Scan(&wasDefault); err != nil {
			return err
		}
		if !wasDefault {
			return nil
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE addresses SET is_default = true, updated_at = now()
			WHERE id = (SELECT id FROM addresses WHERE user_id = $1 ORDER BY created_at ASC, id ASC LIMIT 1)`, userID)
		return err
	})
}

func (r *AddressPostgres) SetDefault(ctx context.Context, userID, id string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := clearDefault(ctx, tx, userID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE addresses SET is_default = true, updated_at = now() WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return err
		}
		return expectAffected(res)
	})
}
