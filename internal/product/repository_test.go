package product

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func productColumns() []string {
	return []string{"id", "name", "description", "unit_price", "discarded_at", "created_at", "updated_at"}
}

func TestRepositoryList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	now := time.Now()

	rows := pgxmock.NewRows(productColumns()).
		AddRow(int64(1), "Mug", "A mug", 9.90, nil, now, now).
		AddRow(int64(2), "Shirt", "A shirt", 29.90, nil, now, now)
	mock.ExpectQuery(`SELECT id, name, description`).WillReturnRows(rows)

	products, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, "Mug", products[0].Name)
	require.Equal(t, 29.90, products[1].UnitPrice)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	now := time.Now()

	rows := pgxmock.NewRows(productColumns()).
		AddRow(int64(7), "Mug", "A mug", 9.90, nil, now, now)
	mock.ExpectQuery(`SELECT id, name, description`).WithArgs(int64(7)).WillReturnRows(rows)

	p, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, int64(7), p.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectQuery(`SELECT id, name, description`).WithArgs(int64(404)).WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByID(context.Background(), 404)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO products`).
		WithArgs("Mug", "A mug", 9.90).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(3), now, now))

	p := &Product{Name: "Mug", Description: "A mug", UnitPrice: 9.90}
	require.NoError(t, repo.Create(context.Background(), p))
	require.Equal(t, int64(3), p.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdate_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectQuery(`UPDATE products`).
		WithArgs(int64(9), "Mug", "A mug", 9.90).
		WillReturnError(pgx.ErrNoRows)

	p := &Product{ID: 9, Name: "Mug", Description: "A mug", UnitPrice: 9.90}
	require.ErrorIs(t, repo.Update(context.Background(), p), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDiscard(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectExec(`UPDATE products`).
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Discard(context.Background(), 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDiscard_AlreadyDiscarded(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectExec(`UPDATE products`).
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.ErrorIs(t, repo.Discard(context.Background(), 5), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		product Product
		want    []string
	}{
		"valid": {
			product: Product{Name: "Mug", Description: "A mug", UnitPrice: 0},
			want:    nil,
		},
		"blank name": {
			product: Product{Description: "A mug", UnitPrice: 1},
			want:    []string{"Name can't be blank"},
		},
		"negative price": {
			product: Product{Name: "Mug", Description: "A mug", UnitPrice: -1},
			want:    []string{"Unit price must be greater than or equal to 0"},
		},
		"everything wrong": {
			product: Product{Name: " ", Description: "", UnitPrice: -0.5},
			want: []string{
				"Name can't be blank",
				"Description can't be blank",
				"Unit price must be greater than or equal to 0",
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.product.Validate())
		})
	}
}
