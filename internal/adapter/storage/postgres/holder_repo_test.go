package postgres

import (
	"context"
	"testing"
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHolder() *domain.Holder {
	return &domain.Holder{
		CPF:       "52998224725",
		Name:      "Maria Silva",
		Active:    true,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestHolderRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewHolderRepo(mock)
	h := newTestHolder()

	mock.ExpectExec("INSERT INTO holders").
		WithArgs(h.CPF, h.Name, true, h.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Create(context.Background(), h))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolderRepo_Create_Duplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewHolderRepo(mock)
	h := newTestHolder()

	mock.ExpectExec("INSERT INTO holders").
		WithArgs(h.CPF, h.Name, true, h.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "holders_pkey"})

	err = repo.Create(context.Background(), h)
	assert.ErrorIs(t, err, ports.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolderRepo_GetByCPF(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewHolderRepo(mock)
	h := newTestHolder()

	mock.ExpectQuery("SELECT cpf, name, active, created_at FROM holders WHERE cpf").
		WithArgs(h.CPF).
		WillReturnRows(pgxmock.NewRows([]string{"cpf", "name", "active", "created_at"}).
			AddRow(h.CPF, h.Name, h.Active, h.CreatedAt))

	result, err := repo.GetByCPF(context.Background(), h.CPF)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, h.Name, result.Name)
	assert.True(t, result.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolderRepo_GetByCPF_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewHolderRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM holders").
		WithArgs("12345678900").
		WillReturnRows(pgxmock.NewRows([]string{"cpf", "name", "active", "created_at"}))

	result, err := repo.GetByCPF(context.Background(), "12345678900")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolderRepo_Deactivate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewHolderRepo(mock)

	mock.ExpectExec("UPDATE holders SET active = FALSE").
		WithArgs("52998224725").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.Deactivate(context.Background(), "52998224725"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolderRepo_Deactivate_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewHolderRepo(mock)

	mock.ExpectExec("UPDATE holders").
		WithArgs("12345678900").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.Deactivate(context.Background(), "12345678900")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
