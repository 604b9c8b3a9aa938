package report

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveravet/clinic-api/internal/handler/handlertest"
	"github.com/riveravet/clinic-api/internal/model"
)

type fakeReporter struct {
	Reporter
	month, year int
	dashFor     uuid.UUID
}

func (f *fakeReporter) Monthly(ctx context.Context, month, year int) (*model.MonthlyReport, error) {
	f.month, f.year = month, year
	return &model.MonthlyReport{Month: month, Year: year}, nil
}

func (f *fakeReporter) UserDashboard(ctx context.Context, userID uuid.UUID) (*model.UserDashboard, error) {
	f.dashFor = userID
	return &model.UserDashboard{Appointments: 2, Pets: 1}, nil
}

func TestMonthly(t *testing.T) {
	svc := &fakeReporter{}
	r := handlertest.Engine(NewHandler(svc), handlertest.Admin())

	w := handlertest.JSON(r, http.MethodGet, "/api/v1/reports/monthly?month=9&year=2026", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 9, svc.month)
	assert.Equal(t, 2026, svc.year)

	w = handlertest.JSON(r, http.MethodGet, "/api/v1/reports/monthly?month=13&year=2026", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMonthly_AdminOnly(t *testing.T) {
	r := handlertest.Engine(NewHandler(&fakeReporter{}), handlertest.Vet())

	w := handlertest.JSON(r, http.MethodGet, "/api/v1/reports/monthly?month=9&year=2026", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserDashboard_UsesCaller(t *testing.T) {
	svc := &fakeReporter{}
	owner := handlertest.Owner()
	r := handlertest.Engine(NewHandler(svc), owner)

	w := handlertest.JSON(r, http.MethodGet, "/api/v1/reports/dashboard/user", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, owner.UserID, svc.dashFor)
	assert.JSONEq(t, `{"status":"success","data":{"appointments":2,"pets":1,"notifications":0,"visits":0}}`, w.Body.String())
}
