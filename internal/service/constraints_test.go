package service

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopapi/internal/database"
)

func TestUniqueConstraintsMatchMigrations(t *testing.T) {
	fsys, err := database.MigrationFS()
	require.NoError(t, err)

	tests := []struct {
		file       string
		constraint string
		columns    string
	}{
		{"002_catalog.sql", reviewUniqueConstraint, "(product_id, user_id)"},
		{"003_cart_orders.sql", orderNumberConstraint, "(order_number)"},
		{"004_payments.sql", idempotencyConstraint, "(idempotency_key)"},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			ddl, err := fs.ReadFile(fsys, tt.file)
			require.NoError(t, err)
			assert.Contains(t, string(ddl), "CONSTRAINT "+tt.constraint+" UNIQUE "+tt.columns)
		})
	}
}
