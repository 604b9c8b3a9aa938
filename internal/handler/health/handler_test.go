package health

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/riveravet/clinic-api/internal/handler/handlertest"
)

type pinger struct{ err error }

func (p pinger) PingContext(ctx context.Context) error { return p.err }

func TestReadiness(t *testing.T) {
	r := handlertest.Engine(NewHandler(pinger{}, nil), nil)
	w := handlertest.JSON(r, http.MethodGet, "/api/v1/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	r = handlertest.Engine(NewHandler(pinger{err: errors.New("connection refused")}, nil), nil)
	w = handlertest.JSON(r, http.MethodGet, "/api/v1/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "DOWN")
}

func TestLivenessAndMetrics(t *testing.T) {
	scraped := false
	metrics := func(c *gin.Context) {
		scraped = true
		c.String(http.StatusOK, "# metrics")
	}
	r := handlertest.Engine(NewHandler(pinger{err: errors.New("down")}, metrics), nil)

	assert.Equal(t, http.StatusOK, handlertest.JSON(r, http.MethodGet, "/api/v1/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, handlertest.JSON(r, http.MethodGet, "/api/v1/health/metrics", nil).Code)
	assert.True(t, scraped)
}
