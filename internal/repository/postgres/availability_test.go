package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveravet/clinic-api/internal/model"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
)

func TestFilterClause(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name   string
		filter model.UnavailabilityFilter
		where  string
		args   []interface{}
	}{
		{"no filter", model.UnavailabilityFilter{}, " WHERE 1=1", nil},
		{"role only", model.UnavailabilityFilter{Role: model.RoleAdmin}, " WHERE 1=1 AND role_set = $1", []interface{}{model.RoleAdmin}},
		{"user only", model.UnavailabilityFilter{UserID: &userID}, " WHERE 1=1 AND user_id = $1", []interface{}{userID}},
		{
			"user and role",
			model.UnavailabilityFilter{UserID: &userID, Role: model.RoleVet},
			" WHERE 1=1 AND user_id = $1 AND role_set = $2",
			[]interface{}{userID, model.RoleVet},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := filterClause(tt.filter)
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestAvailabilityRepository_ListTimesFiltered(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewAvailabilityRepository(base)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM unavailable_times WHERE 1=1 AND user_id = $1 AND role_set = $2 ORDER BY date ASC, time_from ASC")).
		WithArgs(userID, model.RoleVet).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "date", "time_from", "time_to", "event", "role_set", "set_by"}).
			AddRow(uuid.New(), userID, "2025-06-01", "09:00", "11:00", "Surgery", model.RoleVet, "Dr. Reyes"))

	entries, err := repo.ListTimes(context.Background(), model.UnavailabilityFilter{UserID: &userID, Role: model.RoleVet})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "09:00", entries[0].TimeFrom)
	assert.Equal(t, model.RoleVet, entries[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepository_FullDaysOnDate(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewAvailabilityRepository(base)

	mock.ExpectQuery(regexp.QuoteMeta("FROM unavailable_dates WHERE date = $1::date")).
		WithArgs("2025-06-01").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "date", "event", "role_set", "set_by"}))

	entries, err := repo.FullDaysOnTx(context.Background(), nil, "2025-06-01")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepository_DeleteMissing(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewAvailabilityRepository(base)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM unavailable_times WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteTime(context.Background(), id)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
