package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopapi/internal/model"
	"shopapi/internal/repository"
)

func TestProductPostgres_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductPostgres(db)
	ctx := context.Background()

	t.Run("storefront filter", func(t *testing.T) {
		featured := true
		min := decimal.NewFromInt(1000)
		f := repository.ProductFilter{
			CategorySlug: "fabrics",
			Featured:     &featured,
			MinPrice:     &min,
			Sort:         repository.SortPriceAsc,
			PageQuery:    repository.PageQuery{Limit: 10, Offset: 0},
		}

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products p LEFT JOIN categories c ON c.id = p.category_id WHERE p.is_active AND c.slug = \$1 AND p.is_featured = \$2 AND p.price >= \$3`).
			WithArgs("fabrics", true, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT (.+) FROM products p (.+) ORDER BY p.price ASC, p.id ASC LIMIT \$4 OFFSET \$5`).
			WithArgs("fabrics", true, sqlmock.AnyArg(), 10, 0).
			WillReturnRows(sqlmock.NewRows(productCols).AddRow(productValues("p1", "kitenge", 4)...))

		res, err := repo.List(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		require.Len(t, res.Items, 1)
		assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, res.Items[0].ImageURLs)
		assert.Equal(t, "cat-1", *res.Items[0].CategoryID)
		assert.Nil(t, res.Items[0].CompareAtPrice)
		assert.True(t, decimal.NewFromInt(15000).Equal(res.Items[0].Price))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("admin sees inactive", func(t *testing.T) {
		f := repository.ProductFilter{IncludeInactive: true, PageQuery: repository.PageQuery{Limit: 5, Offset: 5}}
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products p LEFT JOIN categories c ON c.id = p.category_id$`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`ORDER BY p.created_at DESC, p.id DESC LIMIT \$1 OFFSET \$2`).
			WithArgs(5, 5).
			WillReturnRows(sqlmock.NewRows(productCols))

		res, err := repo.List(ctx, f)
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductPostgres_FindBySlug(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductPostgres(db)
	ctx := context.Background()

	t.Run("found with rating", func(t *testing.T) {
		cols := append(append([]string{}, productCols...), "avg", "count")
		vals := append(productValues("p1", "kitenge", 2), 4.5, 2)
		mock.ExpectQuery(`SELECT (.+) WHERE p.slug = \$1`).
			WithArgs("kitenge").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(vals...))

		p, err := repo.FindBySlug(ctx, "kitenge")
		require.NoError(t, err)
		require.NotNil(t, p.Rating)
		assert.Equal(t, 4.5, p.Rating.Average)
		assert.Equal(t, 2, p.Rating.Count)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) WHERE p.id = \$1`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		p, err := repo.FindByID(ctx, "missing")
		assert.Nil(t, p)
		assert.True(t, IsNoRowsError(err))
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductPostgres_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductPostgres(db)

	in := &model.Product{Name: "Kikoi", Slug: "kikoi", Price: decimal.NewFromInt(20000), Stock: 3, IsActive: true}
	mock.ExpectQuery("INSERT INTO products").
		WithArgs(sqlmock.AnyArg(), "Kikoi", "kikoi", "", sqlmock.AnyArg(), sqlmock.AnyArg(), 3, "[]", true, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("p9", testNow, testNow))

	out, err := repo.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "p9", out.ID)
	assert.Equal(t, []string{}, out.ImageURLs)
	assert.Empty(t, in.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductPostgres_Deactivate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductPostgres(db)

	mock.ExpectExec("UPDATE products SET is_active = false").WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products SET is_active = false").WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Deactivate(context.Background(), "p1"))
	assert.True(t, IsNoRowsError(repo.Deactivate(context.Background(), "nope")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductPostgres_AppendImage(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductPostgres(db)

	mock.ExpectExec(`UPDATE products SET image_urls = array_append\(image_urls, \$2\)`).
		WithArgs("p1", "https://cdn.example.com/b.jpg").
		WillReturnResult(sqlmock.NewResult(0, 1))
	cols := append(append([]string{}, productCols...), "avg", "count")
	mock.ExpectQuery(`WHERE p.id = \$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(append(productValues("p1", "kitenge", 2), 0.0, 0)...))

	p, err := repo.AppendImage(context.Background(), "p1", "https://cdn.example.com/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
