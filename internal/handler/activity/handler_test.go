package activity

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

type fakeActivity struct {
	actor  model.Principal
	action string
	userID *uuid.UUID
	limit  int
}

func (f *fakeActivity) Log(ctx context.Context, actor model.Principal, action string) (*model.ActivityLog, error) {
	f.actor, f.action = actor, action
	return &model.ActivityLog{ID: uuid.New(), ActorName: actor.Username, Action: action}, nil
}

func (f *fakeActivity) List(ctx context.Context, userID *uuid.UUID, limit int) ([]*model.ActivityLog, error) {
	f.userID, f.limit = userID, limit
	return []*model.ActivityLog{}, nil
}

func TestLog_StaffActorFromToken(t *testing.T) {
	vet := handlertest.Vet()
	svc := &fakeActivity{}
	r := handlertest.Engine(NewHandler(svc), vet)

	w := handlertest.JSON(r, http.MethodPost, "/api/v1/logs", map[string]string{"action": "Signed in"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, vet.UserID, svc.actor.UserID)
	assert.Equal(t, "Signed in", svc.action)

	owner := handlertest.Engine(NewHandler(svc), handlertest.Owner())
	assert.Equal(t, http.StatusForbidden, handlertest.JSON(owner, http.MethodPost, "/api/v1/logs", map[string]string{"action": "x"}).Code)
}

func TestList_AdminWithFilters(t *testing.T) {
	svc := &fakeActivity{}
	r := handlertest.Engine(NewHandler(svc), handlertest.Admin())
	id := uuid.New()

	require.Equal(t, http.StatusOK, handlertest.JSON(r, http.MethodGet, "/api/v1/logs?user_id="+id.String()+"&limit=25", nil).Code)
	require.NotNil(t, svc.userID)
	assert.Equal(t, id, *svc.userID)
	assert.Equal(t, 25, svc.limit)

	assert.Equal(t, http.StatusBadRequest, handlertest.JSON(r, http.MethodGet, "/api/v1/logs?limit=0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, handlertest.JSON(r, http.MethodGet, "/api/v1/logs?user_id=abc", nil).Code)

	vet := handlertest.Engine(NewHandler(svc), handlertest.Vet())
	assert.Equal(t, http.StatusForbidden, handlertest.JSON(vet, http.MethodGet, "/api/v1/logs", nil).Code)
}
