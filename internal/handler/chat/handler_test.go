package chat

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveravet/clinic-api/internal/handler/handlertest"
	"github.com/riveravet/clinic-api/internal/middleware"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
)

type fakeAssistant struct {
	asked string
	err   error
}

func (f *fakeAssistant) Ask(ctx context.Context, message string) (string, error) {
	f.asked = message
	return "Vaccines are given from 6 weeks.", f.err
}

func TestAsk(t *testing.T) {
	svc := &fakeAssistant{}
	r := handlertest.Engine(NewHandler(svc, nil), nil)

	w := handlertest.JSON(r, http.MethodPost, "/api/v1/chat", map[string]string{"message": "When should my puppy get shots?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "When should my puppy get shots?", svc.asked)
	assert.JSONEq(t, `{"status":"success","data":{"reply":"Vaccines are given from 6 weeks."}}`, w.Body.String())
}

func TestAsk_EmptyMessage(t *testing.T) {
	r := handlertest.Engine(NewHandler(&fakeAssistant{}, nil), nil)

	w := handlertest.JSON(r, http.MethodPost, "/api/v1/chat", map[string]string{"message": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAsk_UpstreamFailure(t *testing.T) {
	svc := &fakeAssistant{err: apperrors.Unavailable("assistant unavailable", errors.New("quota"))}
	r := handlertest.Engine(NewHandler(svc, nil), nil)

	w := handlertest.JSON(r, http.MethodPost, "/api/v1/chat", map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAsk_RateLimited(t *testing.T) {
	limit := middleware.NewClientRateLimiter(1).RateLimit()
	r := handlertest.Engine(NewHandler(&fakeAssistant{}, limit), nil)
	body := map[string]string{"message": "hello"}

	assert.Equal(t, http.StatusOK, handlertest.JSON(r, http.MethodPost, "/api/v1/chat", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, handlertest.JSON(r, http.MethodPost, "/api/v1/chat", body).Code)
}
