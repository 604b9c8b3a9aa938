package medical

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveravet/clinic-api/internal/handler/handlertest"
	"github.com/riveravet/clinic-api/internal/model"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
)

type fakeRecords struct {
	Records
	records      map[uuid.UUID]*model.PetRecord
	created      *model.PetRecordInput
	photo        *model.Photo
	visitRecord  uuid.UUID
	visitUpdated uuid.UUID
}

func (f *fakeRecords) CreateRecord(ctx context.Context, in *model.PetRecordInput, photo *model.Photo) (*model.PetRecord, error) {
	f.created, f.photo = in, photo
	return &model.PetRecord{ID: uuid.New(), PetName: in.PetName, Species: in.Species}, nil
}

func (f *fakeRecords) GetRecord(ctx context.Context, id uuid.UUID) (*model.PetRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, apperrors.NotFound("pet record", nil)
	}
	return rec, nil
}

func (f *fakeRecords) ListVisits(ctx context.Context, recordID uuid.UUID) ([]*model.Visit, error) {
	return nil, nil
}

func (f *fakeRecords) UpdateVisit(ctx context.Context, recordID, visitID uuid.UUID, in *model.VisitInput) (*model.Visit, error) {
	f.visitRecord, f.visitUpdated = recordID, visitID
	return &model.Visit{ID: visitID, MedicalRecordID: recordID, VisitDate: in.VisitDate}, nil
}

func TestCreateRecord_Multipart(t *testing.T) {
	svc := &fakeRecords{}
	r := handlertest.Engine(NewHandler(svc), handlertest.Vet())

	w := handlertest.Multipart(r, http.MethodPost, "/api/v1/medical/records", map[string]string{
		"owner_name": "Ana Cruz", "pet_name": "Mochi", "species": "Cat", "weight": "4.2", "birth_date": "2023-02-14",
	}, handlertest.File{Field: "photo", Name: "mochi.jpg", ContentType: "image/jpeg", Body: []byte{0xff, 0xd8, 0xff}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, svc.created.Weight)
	assert.Equal(t, 4.2, *svc.created.Weight)
	require.NotNil(t, svc.photo)
}

func TestCreateRecord_StaffOnly(t *testing.T) {
	r := handlertest.Engine(NewHandler(&fakeRecords{}), handlertest.Owner())

	w := handlertest.Multipart(r, http.MethodPost, "/api/v1/medical/records", map[string]string{
		"owner_name": "Ana Cruz", "pet_name": "Mochi", "species": "Cat",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetRecord_OwnerVisibility(t *testing.T) {
	owner := handlertest.Owner()
	mine, theirs := uuid.New(), uuid.New()
	other := uuid.New()
	svc := &fakeRecords{records: map[uuid.UUID]*model.PetRecord{
		mine:   {ID: mine, OwnerUserID: &owner.UserID},
		theirs: {ID: theirs, OwnerUserID: &other},
	}}
	r := handlertest.Engine(NewHandler(svc), owner)

	assert.Equal(t, http.StatusOK, handlertest.JSON(r, http.MethodGet, "/api/v1/medical/records/"+mine.String(), nil).Code)
	assert.Equal(t, http.StatusForbidden, handlertest.JSON(r, http.MethodGet, "/api/v1/medical/records/"+theirs.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, handlertest.JSON(r, http.MethodGet, "/api/v1/medical/records/"+uuid.NewString(), nil).Code)

	w := handlertest.JSON(r, http.MethodGet, "/api/v1/medical/records/"+mine.String()+"/visits", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","data":[]}`, w.Body.String())
}

func TestUpdateVisit_ScopedToRecord(t *testing.T) {
	svc := &fakeRecords{}
	r := handlertest.Engine(NewHandler(svc), handlertest.Vet())
	recordID, visitID := uuid.New(), uuid.New()

	w := handlertest.JSON(r, http.MethodPut, "/api/v1/medical/records/"+recordID.String()+"/visits/"+visitID.String(),
		map[string]string{"visit_date": "2026-10-01", "service_type": "Checkup"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, recordID, svc.visitRecord)
	assert.Equal(t, visitID, svc.visitUpdated)
}
