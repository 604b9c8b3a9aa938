package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveravet/clinic-api/internal/model"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
)

func TestUserRepository_IncrementFailedLogins(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewUserRepository(base)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SET failed_login_attempts = failed_login_attempts + 1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"failed_login_attempts"}).AddRow(3))

	attempts, err := repo.IncrementFailedLogins(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_IncrementFailedLoginsMissing(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewUserRepository(base)

	mock.ExpectQuery(regexp.QuoteMeta("RETURNING failed_login_attempts")).
		WillReturnRows(sqlmock.NewRows([]string{"failed_login_attempts"}))

	_, err := repo.IncrementFailedLogins(context.Background(), uuid.New())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestUserRepository_LockAccount(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewUserRepository(base)
	id := uuid.New()
	until := time.Date(2025, 6, 1, 9, 10, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("SET locked_until = $1, unlock_token = $2")).
		WithArgs(until, "tok", id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.LockAccount(context.Background(), id, until, "tok"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateDetailsDuplicateIsConflict(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewUserRepository(base)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET username = $1, email = $2")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := repo.UpdateDetails(context.Background(), &model.User{Base: model.Base{ID: uuid.New()}, Email: "Ana@Example.com"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))
}

func TestUserRepository_DeleteWithOrdersIsConflict(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewUserRepository(base)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(id).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "orders_user_id_fkey"})

	err := repo.Delete(context.Background(), id)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))
}

func TestUserRepository_DeleteMissing(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewUserRepository(base)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), uuid.New())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}
