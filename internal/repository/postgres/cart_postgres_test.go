package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopapi/internal/repository"
)

var cartCols = []string{"id", "user_id", "product_id", "name", "slug", "image", "price", "stock", "is_active", "quantity"}

func TestCartPostgres_AddItem(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCartPostgres(db)

	mock.ExpectQuery(`INSERT INTO cart_items (.+) ON CONFLICT \(user_id, product_id\) DO UPDATE`).
		WithArgs("user_1", "p1", 2, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ci1"))
	mock.ExpectQuery(`WHERE ci.id = \$1 AND ci.user_id = \$2`).
		WithArgs("ci1", "user_1").
		WillReturnRows(sqlmock.NewRows(cartCols).AddRow("ci1", "user_1", "p1", "Kitenge", "kitenge", "", "15000.00", 5, true, 2))

	it, err := repo.AddItem(context.Background(), "user_1", "p1", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, it.Quantity)
	assert.Equal(t, "30000", it.LineTotal().String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartPostgres_Merge(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCartPostgres(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO cart_items (.+) GREATEST\(cart_items.quantity, EXCLUDED.quantity\)`).
		WithArgs("user_1", "p1", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO cart_items`).
		WithArgs("user_1", "p2", 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Merge(context.Background(), "user_1", []repository.CartLine{
		{ProductID: "p1", Quantity: 3},
		{ProductID: "p3", Quantity: 0},
		{ProductID: "p2", Quantity: 1},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartPostgres_RemoveItemOfAnotherUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCartPostgres(db)

	mock.ExpectExec(`DELETE FROM cart_items WHERE id = \$1 AND user_id = \$2`).
		WithArgs("ci1", "user_2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.True(t, IsNoRowsError(repo.RemoveItem(context.Background(), "user_2", "ci1")))
}
