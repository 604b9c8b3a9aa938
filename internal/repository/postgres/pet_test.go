package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveravet/clinic-api/internal/model"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
)

func TestPetRepository_CreateUnknownOwner(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewPetRepository(base)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pet_profiles")).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "pet_profiles_owner_user_id_fkey"})

	err := repo.Create(context.Background(), &model.Pet{OwnerUserID: uuid.New(), Name: "Mochi", PetType: "Cat"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestPetRepository_ListByOwner(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewPetRepository(base)
	owner := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM pet_profiles WHERE owner_user_id = $1 ORDER BY name ASC")).
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_user_id", "name", "pet_type"}).
			AddRow(uuid.New(), owner, "Mochi", "Cat"))

	pets, err := repo.ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, pets, 1)
	assert.Equal(t, "Mochi", pets[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPetRepository_UpdateMissing(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewPetRepository(base)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE pet_profiles")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &model.Pet{ID: uuid.New(), Name: "Mochi"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}
