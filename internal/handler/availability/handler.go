package availability

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/handler"
	"github.com/riveravet/clinic-api/internal/middleware"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/httputil"
)

type Register interface {
	AddFullDay(ctx context.Context, p model.Principal, req *model.AddFullDayRequest) (*model.UnavailableDate, error)
	AddTimeRange(ctx context.Context, p model.Principal, req *model.AddTimeRangeRequest) (*model.UnavailableTime, error)
	Remove(ctx context.Context, id uuid.UUID, kind model.UnavailabilityKind) error
	ListAll(ctx context.Context) (*model.Unavailability, error)
	ListForUser(ctx context.Context, userID uuid.UUID) (*model.Unavailability, error)
	ListAdminOnly(ctx context.Context) (*model.Unavailability, error)
	NotifyUsers(ctx context.Context, p model.Principal, req *model.NotifyUnavailabilityRequest) (*model.NotifyReport, error)
}

type Handler struct {
	register Register
}

func NewHandler(register Register) *Handler {
	return &Handler{register: register}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	g := protected.Group("/availability")
	g.GET("", h.ListAll)
	g.GET("/admin", h.ListAdmin)

	staff := g.Group("", middleware.RequireStaff())
	{
		staff.GET("/:userId", h.ListForUser)
		staff.POST("/add-full-day", h.AddFullDay)
		staff.POST("/add-time", h.AddTime)
		staff.POST("/notify-users", h.NotifyUsers)
		staff.DELETE("/delete-full-day/:id", h.remove(model.UnavailabilityFullDay))
		staff.DELETE("/delete-time/:id", h.remove(model.UnavailabilityTimeRange))
	}
}

func (h *Handler) ListAll(c *gin.Context) {
	u, err := h.register.ListAll(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) ListAdmin(c *gin.Context) {
	u, err := h.register.ListAdminOnly(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) ListForUser(c *gin.Context) {
	userID, ok := handler.ParamUUID(c, "userId")
	if !ok {
		return
	}
	u, err := h.register.ListForUser(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) AddFullDay(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var req model.AddFullDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	entry, err := h.register.AddFullDay(c.Request.Context(), p, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, entry)
}

func (h *Handler) AddTime(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var req model.AddTimeRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	entry, err := h.register.AddTimeRange(c.Request.Context(), p, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, entry)
}

func (h *Handler) NotifyUsers(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var req model.NotifyUnavailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	report, err := h.register.NotifyUsers(c.Request.Context(), p, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, report)
}

func (h *Handler) remove(kind model.UnavailabilityKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := handler.ParamUUID(c, "id")
		if !ok {
			return
		}
		if err := h.register.Remove(c.Request.Context(), id, kind); err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, gin.H{"id": id})
	}
}
