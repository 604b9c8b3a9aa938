package appointment

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveravet/clinic-api/internal/handler/handlertest"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/service/scheduler"
)

type fakeScheduler struct {
	Scheduler
	bookErr  error
	booked   []string
	byUser   uuid.UUID
	statusID uuid.UUID
}

func (f *fakeScheduler) Book(ctx context.Context, p model.Principal, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	return &model.Appointment{ID: uuid.New(), Date: req.Date, Time: req.Time, UserID: p.UserID, Status: model.AppointmentStatusPending}, nil
}

func (f *fakeScheduler) ListBookedTimes(ctx context.Context, date string) ([]string, error) {
	return f.booked, nil
}

func (f *fakeScheduler) ListByRequester(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error) {
	f.byUser = userID
	return []*model.Appointment{}, nil
}

func (f *fakeScheduler) SetStatus(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentStatusRequest) (*model.Appointment, error) {
	f.statusID = id
	return &model.Appointment{ID: id, Status: model.AppointmentStatus(req.Status)}, nil
}

func TestCreateAppointment(t *testing.T) {
	owner := handlertest.Owner()
	r := handlertest.Engine(NewHandler(&fakeScheduler{}), owner)

	w := handlertest.JSON(r, http.MethodPost, "/api/v1/appointments", map[string]string{
		"date": "2025-06-01", "time": "10:00", "owner_name": "Ana Cruz",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var got model.Appointment
	require.NoError(t, handlertest.Decode(w, &got))
	assert.Equal(t, owner.UserID, got.UserID)
	assert.Equal(t, model.AppointmentStatusPending, got.Status)
}

func TestCreateAppointment_RejectsBadClock(t *testing.T) {
	r := handlertest.Engine(NewHandler(&fakeScheduler{}), handlertest.Owner())

	w := handlertest.JSON(r, http.MethodPost, "/api/v1/appointments", map[string]string{
		"date": "2025-06-01", "time": "25:00", "owner_name": "Ana Cruz",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Time must be formatted as HH:MM")
}

func TestCreateAppointment_BlockedSlotIsConflict(t *testing.T) {
	r := handlertest.Engine(NewHandler(&fakeScheduler{bookErr: scheduler.ErrSlotBlocked}), handlertest.Owner())

	w := handlertest.JSON(r, http.MethodPost, "/api/v1/appointments", map[string]string{
		"date": "2025-06-01", "time": "10:00", "owner_name": "Ana Cruz",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")
}

func TestBookedTimes_EmptyIsArray(t *testing.T) {
	r := handlertest.Engine(NewHandler(&fakeScheduler{}), handlertest.Owner())

	w := handlertest.JSON(r, http.MethodGet, "/api/v1/appointments/2025-06-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","data":[]}`, w.Body.String())
}

func TestListByUser_OwnerOnlySeesSelf(t *testing.T) {
	owner := handlertest.Owner()
	svc := &fakeScheduler{}
	r := handlertest.Engine(NewHandler(svc), owner)

	w := handlertest.JSON(r, http.MethodGet, "/api/v1/appointments/user/"+owner.UserID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, owner.UserID, svc.byUser)

	w = handlertest.JSON(r, http.MethodGet, "/api/v1/appointments/user/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateStatus_StaffOnly(t *testing.T) {
	id := uuid.New()
	body := map[string]string{"status": "Approved"}

	r := handlertest.Engine(NewHandler(&fakeScheduler{}), handlertest.Owner())
	w := handlertest.JSON(r, http.MethodPut, "/api/v1/appointments/"+id.String()+"/status", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	svc := &fakeScheduler{}
	r = handlertest.Engine(NewHandler(svc), handlertest.Vet())
	w = handlertest.JSON(r, http.MethodPut, "/api/v1/appointments/"+id.String()+"/status", body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, svc.statusID)
}
