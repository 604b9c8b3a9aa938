package receipt

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/handler"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/httputil"
)

type Receipts interface {
	Issue(ctx context.Context, p model.Principal, orderID uuid.UUID) (*model.Receipt, error)
	Get(ctx context.Context, p model.Principal, ref string) (*model.Receipt, error)
}

type Handler struct {
	receipts Receipts
}

func NewHandler(receipts Receipts) *Handler {
	return &Handler{receipts: receipts}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	g := protected.Group("/receipts")
	{
		g.POST("", h.Issue)
		g.GET("/:ref", h.Get)
	}
}

func (h *Handler) Issue(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var req model.ReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	r, err := h.receipts.Issue(c.Request.Context(), p, req.OrderID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, r)
}

func (h *Handler) Get(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	r, err := h.receipts.Get(c.Request.Context(), p, c.Param("ref"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, r)
}
