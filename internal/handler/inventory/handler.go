package inventory

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/handler"
	"github.com/riveravet/clinic-api/internal/middleware"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/httputil"
)

type Catalog interface {
	Add(ctx context.Context, in *model.InventoryInput, photo *model.Photo) (*model.InventoryItem, error)
	Update(ctx context.Context, id uuid.UUID, in *model.InventoryInput, photo *model.Photo) (*model.InventoryItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Restock(ctx context.Context, id uuid.UUID, qty int) (*model.AdjustResult, error)
	List(ctx context.Context) ([]*model.InventoryItem, error)
	Movements(ctx context.Context, id uuid.UUID) ([]*model.StockMovement, error)
}

// Sweeper runs the low-stock check on demand.
type Sweeper interface {
	CheckLowStock(ctx context.Context) ([]*model.AdminNotification, error)
}

type Handler struct {
	catalog Catalog
	sweeper Sweeper
}

func NewHandler(catalog Catalog, sweeper Sweeper) *Handler {
	return &Handler{catalog: catalog, sweeper: sweeper}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	g := protected.Group("/inventory")
	g.GET("/fetch", h.List)

	admin := g.Group("", middleware.RequireRoles(model.RoleAdmin))
	{
		admin.GET("/movements/:id", h.Movements)
		admin.POST("/add", h.Add)
		admin.POST("/restock/:id", h.Restock)
		admin.POST("/check-low-stock", h.CheckLowStock)
		admin.PUT("/update/:id", h.Update)
		admin.DELETE("/delete/:id", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	items, err := h.catalog.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, items)
}

func (h *Handler) Add(c *gin.Context) {
	var in model.InventoryInput
	if err := c.ShouldBind(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	photo, ok := handler.FormFile(c, "image")
	if !ok {
		return
	}

	item, err := h.catalog.Add(c.Request.Context(), &in, photo)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, item)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var in model.InventoryInput
	if err := c.ShouldBind(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	photo, ok := handler.FormFile(c, "image")
	if !ok {
		return
	}

	item, err := h.catalog.Update(c.Request.Context(), id, &in, photo)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, item)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id})
}

func (h *Handler) Restock(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	result, err := h.catalog.Restock(c.Request.Context(), id, req.Quantity)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) Movements(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	movements, err := h.catalog.Movements(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, movements)
}

func (h *Handler) CheckLowStock(c *gin.Context) {
	alerts, err := h.sweeper.CheckLowStock(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if alerts == nil {
		alerts = []*model.AdminNotification{}
	}
	httputil.RespondWithSuccess(c, gin.H{"alerts": alerts, "count": len(alerts)})
}
