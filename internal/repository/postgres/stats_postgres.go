package postgres

import (
	"context"
	"database/sql"

	"shopapi/internal/model"
	"shopapi/internal/repository"
)

// StatsPostgres computes the admin dashboard.
type StatsPostgres struct {
	db *sql.DB
}

func NewStatsPostgres(db *sql.DB) *StatsPostgres {
	return &StatsPostgres{db: db}
}

var _ repository.StatsRepository = (*StatsPostgres)(nil)

func (r *StatsPostgres) Dashboard(ctx context.Context, lowStockThreshold, recentLimit int) (*model.DashboardStats, error) {
	st := &model.DashboardStats{OrdersByStatus: map[string]int{}}

	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total), 0), COUNT(*) FROM orders WHERE payment_status = 'paid'`).
		Scan(&st.Revenue, &st.PaidOrders); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return nil, err
		}
		st.OrdersByStatus[status] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payment_sessions WHERE status = 'pending'`).Scan(&st.PendingSessions); err != nil {
		return nil, err
	}

	prows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+productFrom+
		` WHERE p.is_active AND p.stock <= $1 ORDER BY p.stock ASC, p.name ASC LIMIT 20`, lowStockThreshold)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	st.LowStock = make([]model.Product, 0)
	for prows.Next() {
		p, err := scanProduct(prows)
		if err != nil {
			return nil, err
		}
		st.LowStock = append(st.LowStock, *p)
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}

	if st.RecentOrders, err = queryOrders(ctx, r.db,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC LIMIT $1`, recentLimit); err != nil {
		return nil, err
	}
	return st, nil
}
