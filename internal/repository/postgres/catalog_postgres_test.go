package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopapi/internal/model"
	"shopapi/internal/sqlerr"
)

func TestCategoryPostgres_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryPostgres(db)

	rows := sqlmock.NewRows([]string{"id", "name", "slug", "description", "image_url", "created_at", "updated_at", "count"}).
		AddRow("c1", "Fabrics", "fabrics", "", "", testNow, testNow, 12).
		AddRow("c2", "Shoes", "shoes", "", "", testNow, testNow, 0)
	mock.ExpectQuery(`FROM categories c\s+LEFT JOIN products p`).WillReturnRows(rows)

	out, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 12, out[0].ProductCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryPostgres_CreateDuplicateSlug(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryPostgres(db)

	mock.ExpectQuery("INSERT INTO categories").
		WithArgs("Fabrics", "fabrics", "", "").
		WillReturnError(&pgconn.PgError{Code: "23505", TableName: "categories", ConstraintName: "categories_slug_key"})

	_, err := repo.Create(context.Background(), &model.Category{Name: "Fabrics", Slug: "fabrics"})
	require.Error(t, err)
	assert.True(t, sqlerr.IsUniqueViolation(err, "categories_slug_key"))
}

func TestCategoryPostgres_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryPostgres(db)

	mock.ExpectExec("DELETE FROM categories").WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM categories").WithArgs("c404").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), "c1"))
	assert.True(t, IsNoRowsError(repo.Delete(context.Background(), "c404")))
}
