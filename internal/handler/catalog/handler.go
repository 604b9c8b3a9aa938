package catalog

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/httputil"
)

// Lister is satisfied by repository.CatalogRepository.
type Lister interface {
	ListServices(ctx context.Context) ([]*model.ClinicService, error)
}

type Handler struct {
	services Lister
}

func NewHandler(services Lister) *Handler {
	return &Handler{services: services}
}

func (h *Handler) RegisterRoutes(public, _ *gin.RouterGroup) {
	public.GET("/services", h.List)
}

func (h *Handler) List(c *gin.Context) {
	services, err := h.services.ListServices(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, services)
}
