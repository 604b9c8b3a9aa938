package realtime

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveravet/clinic-api/internal/handler/handlertest"
	"github.com/riveravet/clinic-api/internal/middleware"
	"github.com/riveravet/clinic-api/internal/model"
	jwtauth "github.com/riveravet/clinic-api/pkg/auth"
)

type fakeServer struct {
	served *model.Principal
}

func (f *fakeServer) Serve(w http.ResponseWriter, r *http.Request, p model.Principal) error {
	f.served = &p
	w.WriteHeader(http.StatusSwitchingProtocols)
	return nil
}

func TestConnect_AuthenticatesFromQuery(t *testing.T) {
	jwt := jwtauth.NewJWTService("test-secret", "clinic", time.Hour)
	auth := middleware.NewAuthMiddleware(jwt).AuthenticateQuery("token")
	srv := &fakeServer{}
	r := handlertest.Engine(NewHandler(srv, auth), nil)

	w := handlertest.JSON(r, http.MethodGet, "/api/v1/ws", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, srv.served)

	userID := uuid.New()
	token, err := jwt.GenerateAccessToken(userID, "ana", model.RoleVet)
	require.NoError(t, err)

	w = handlertest.JSON(r, http.MethodGet, "/api/v1/ws?token="+token, nil)
	assert.Equal(t, http.StatusSwitchingProtocols, w.Code)
	require.NotNil(t, srv.served)
	assert.Equal(t, userID, srv.served.UserID)
	assert.Equal(t, model.RoleVet, srv.served.Role)
}
