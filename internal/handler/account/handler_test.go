package account

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

type fakeAccounts struct {
	Accounts
	created *model.AccountInput
	profile *model.ProfileInput
	photo   *model.Photo
	actor   model.Principal
	got     uuid.UUID
	deleted uuid.UUID
}

func (f *fakeAccounts) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	f.got = id
	return &model.User{Base: model.Base{ID: id}, Username: "ana"}, nil
}

func (f *fakeAccounts) Create(ctx context.Context, actor model.Principal, in *model.AccountInput, photo *model.Photo) (*model.User, error) {
	f.actor, f.created, f.photo = actor, in, photo
	return &model.User{Base: model.Base{ID: uuid.New()}, Username: in.Username, Role: in.Role}, nil
}

func (f *fakeAccounts) Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error {
	f.actor, f.deleted = actor, id
	return nil
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, id uuid.UUID, in *model.ProfileInput, photo *model.Photo) (*model.User, error) {
	f.got, f.profile, f.photo = id, in, photo
	return &model.User{Base: model.Base{ID: id}, FirstName: in.FirstName}, nil
}

var vetForm = map[string]string{
	"username": "drreyes", "email": "reyes@clinic.example", "password": "stethoscope",
	"role": "Vet", "first_name": "Lara", "last_name": "Reyes",
}

func TestCreate_AdminMultipart(t *testing.T) {
	admin := handlertest.Admin()
	svc := &fakeAccounts{}
	r := handlertest.Engine(NewHandler(svc), admin)

	w := handlertest.Multipart(r, http.MethodPost, "/api/v1/accounts", vetForm,
		handlertest.File{Field: "photo", Name: "lara.png", ContentType: "image/png", Body: []byte{0x89, 0x50}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, admin.UserID, svc.actor.UserID)
	assert.Equal(t, model.RoleVet, svc.created.Role)
	require.NotNil(t, svc.photo)
}

func TestAccounts_AdminOnly(t *testing.T) {
	r := handlertest.Engine(NewHandler(&fakeAccounts{}), handlertest.Vet())

	assert.Equal(t, http.StatusForbidden, handlertest.Multipart(r, http.MethodPost, "/api/v1/accounts", vetForm).Code)
	assert.Equal(t, http.StatusForbidden, handlertest.JSON(r, http.MethodDelete, "/api/v1/accounts/"+uuid.NewString(), nil).Code)
}

func TestCreate_RejectsUnknownRole(t *testing.T) {
	r := handlertest.Engine(NewHandler(&fakeAccounts{}), handlertest.Admin())

	form := map[string]string{}
	for k, v := range vetForm {
		form[k] = v
	}
	form["role"] = "Groomer"
	w := handlertest.Multipart(r, http.MethodPost, "/api/v1/accounts", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDelete(t *testing.T) {
	svc := &fakeAccounts{}
	r := handlertest.Engine(NewHandler(svc), handlertest.Admin())
	id := uuid.New()

	w := handlertest.JSON(r, http.MethodDelete, "/api/v1/accounts/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, svc.deleted)
}

func TestUpdateProfile_UsesCaller(t *testing.T) {
	owner := handlertest.Owner()
	svc := &fakeAccounts{}
	r := handlertest.Engine(NewHandler(svc), owner)

	w := handlertest.Multipart(r, http.MethodPut, "/api/v1/profile", map[string]string{
		"first_name": "Ana", "last_name": "Cruz", "zip_code": "4027", "barangay": "San Isidro",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, owner.UserID, svc.got)
	assert.Equal(t, "4027", svc.profile.ZipCode)
	assert.Nil(t, svc.photo)
}

func TestUserData_SelfOrStaff(t *testing.T) {
	owner := handlertest.Owner()
	svc := &fakeAccounts{}
	r := handlertest.Engine(NewHandler(svc), owner)

	assert.Equal(t, http.StatusOK, handlertest.JSON(r, http.MethodGet, "/api/v1/users/"+owner.UserID.String(), nil).Code)
	assert.Equal(t, http.StatusForbidden, handlertest.JSON(r, http.MethodGet, "/api/v1/users/"+uuid.NewString(), nil).Code)

	staff := handlertest.Engine(NewHandler(svc), handlertest.Vet())
	other := uuid.New()
	require.Equal(t, http.StatusOK, handlertest.JSON(staff, http.MethodGet, "/api/v1/users/"+other.String(), nil).Code)
	assert.Equal(t, other, svc.got)
}
