package model

import "github.com/shopspring/decimal"

// DashboardStats is the admin overview.
type DashboardStats struct {
	Revenue         decimal.Decimal `json:"revenue"`
	PaidOrders      int             `json:"paid_orders"`
	OrdersByStatus  map[string]int  `json:"orders_by_status"`
	PendingSessions int             `json:"pending_sessions"`
	LowStock        []Product       `json:"low_stock"`
	RecentOrders    []Order         `json:"recent_orders"`
}
